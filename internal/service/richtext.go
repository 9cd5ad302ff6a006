package service

import (
	"encoding/json"
	"strings"

	"github.com/agentstation/utc"

	"github.com/agentstation/configurator/internal/slug"
	"github.com/agentstation/configurator/pkg/constants"
)

type editorBlock struct {
	ID   string            `json:"id"`
	Type string            `json:"type"`
	Data map[string]string `json:"data"`
}

type editorDocument struct {
	Time    int64         `json:"time"`
	Blocks  []editorBlock `json:"blocks"`
	Version string        `json:"version"`
}

// RichText wraps plain text in the block document the platform stores
// descriptions as. Empty text yields an empty string.
func RichText(id, text string, at utc.Time) (string, error) {
	if text == "" {
		return "", nil
	}
	doc := editorDocument{
		Time: at.Time.UnixMilli(),
		Blocks: []editorBlock{{
			ID:   slug.Make(id),
			Type: "paragraph",
			Data: map[string]string{"text": text},
		}},
		Version: constants.EditorJSVersion,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SameText reports whether the block document doc holds exactly text. An
// empty or unreadable doc only matches empty text.
func SameText(doc, text string) bool {
	if doc == "" {
		return text == ""
	}
	var parsed editorDocument
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		return false
	}
	texts := make([]string, 0, len(parsed.Blocks))
	for _, b := range parsed.Blocks {
		texts = append(texts, b.Data["text"])
	}
	return strings.Join(texts, "\n") == text
}
