package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/agentstation/configurator/pkg/errors"
)

var (
	defaultValidator     *Validator
	defaultValidatorOnce sync.Once
)

// Validator checks a Configuration against field rules and document-level
// invariants. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// NewValidator returns a Validator whose error paths use document key names.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("inputtype", func(fl validator.FieldLevel) bool {
		return InputType(fl.Field().String()).Kind() != KindUnknown
	})
	return &Validator{validate: v}
}

// Validate checks cfg with the shared default Validator.
func Validate(cfg *Configuration) error {
	defaultValidatorOnce.Do(func() { defaultValidator = NewValidator() })
	return defaultValidator.Validate(cfg)
}

// Validate returns nil when cfg is valid, or the joined *errors.ValidationError
// values describing every problem found.
func (v *Validator) Validate(cfg *Configuration) error {
	if cfg == nil {
		return errors.NewValidationError("", nil, "configuration is nil")
	}

	var errs []error
	if err := v.validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return errors.WrapValidation("", err)
		}
		for _, fe := range fieldErrs {
			errs = append(errs, errors.NewValidationError(fieldPath(fe), fe.Value(), fieldMessage(fe)))
		}
	}

	c := &checker{}
	c.document(cfg)
	errs = append(errs, c.errs...)

	return errors.Join(errs...)
}

// fieldPath drops the root struct name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "inputtype":
		return fmt.Sprintf("unknown input type %q", fe.Value())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "min":
		return "must have at least " + fe.Param() + " entries"
	case "uppercase":
		return "must be uppercase"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "email":
		return "must be an email address"
	case "url":
		return "must be a URL"
	}
	return "is invalid (" + fe.Tag() + ")"
}

// checker collects document-level problems the field rules cannot express.
type checker struct {
	errs []error
}

func (c *checker) fail(field string, value any, format string, args ...any) {
	c.errs = append(c.errs, errors.NewValidationError(field, value, fmt.Sprintf(format, args...)))
}

func (c *checker) document(cfg *Configuration) {
	slugs := make(map[string]bool)
	for i, ch := range cfg.Channels {
		if ch.Slug != "" && slugs[ch.Slug] {
			c.fail(fmt.Sprintf("channels[%d].slug", i), ch.Slug, "duplicate channel slug %q", ch.Slug)
		}
		slugs[ch.Slug] = true
	}

	names := make(map[string]bool)
	for i, pt := range cfg.ProductTypes {
		path := fmt.Sprintf("productTypes[%d]", i)
		c.unique(names, path+".name", "product type", pt.Name)
		c.attributes(path, pt.Attributes, AttributeTypeProductType)
	}

	names = make(map[string]bool)
	for i, pt := range cfg.PageTypes {
		path := fmt.Sprintf("pageTypes[%d]", i)
		c.unique(names, path+".name", "page type", pt.Name)
		c.attributes(path, pt.Attributes, AttributeTypePageType)
	}

	c.categories("categories", cfg.Categories)

	names = make(map[string]bool)
	skus := make(map[string]bool)
	for i, p := range cfg.Products {
		path := fmt.Sprintf("products[%d]", i)
		c.unique(names, path+".name", "product", p.Name)
		for j, v := range p.Variants {
			c.unique(skus, fmt.Sprintf("%s.variants[%d].sku", path, j), "variant sku", v.SKU)
		}
	}
}

func (c *checker) unique(seen map[string]bool, field, what, name string) {
	if name == "" {
		return
	}
	if seen[name] {
		c.fail(field, name, "duplicate %s %q", what, name)
	}
	seen[name] = true
}

func (c *checker) attributes(path string, defs []AttributeDefinition, scope AttributeType) {
	seen := make(map[string]bool)
	for i, def := range defs {
		field := fmt.Sprintf("%s.attributes[%d]", path, i)
		c.unique(seen, field+".name", "attribute", def.Name)
		if def.InputType.Kind() == KindUnknown {
			continue // reported by the field rules
		}
		if _, err := def.Variant(); err != nil {
			c.fail(field+".entityType", def.EntityType, "reference attribute %q requires entityType", def.Name)
		}
		if def.Type != "" && def.Type != scope {
			c.fail(field+".type", def.Type, "attribute %q must have type %s", def.Name, scope)
		}
		if def.InputType.Kind() != KindChoice && len(def.Values) > 0 {
			c.fail(field+".values", def.Values, "values are only allowed on choice attributes")
		}
	}
}

func (c *checker) categories(path string, cats []Category) {
	seen := make(map[string]bool)
	for i, cat := range cats {
		field := fmt.Sprintf("%s[%d]", path, i)
		c.unique(seen, field+".name", "category", cat.Name)
		c.categories(field+".subcategories", cat.Subcategories)
	}
}
