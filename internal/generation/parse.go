package generation

import (
	"encoding/json"
	"regexp"
	"strings"
)

// MaxKeywords caps the extracted keyword list.
const MaxKeywords = 20

// BulletGroup is one employer with its rewritten bullets.
type BulletGroup struct {
	Company string   `json:"company"`
	Bullets []string `json:"bullets"`
}

var bracketSpan = regexp.MustCompile(`(?s)\[(.*)\]`)

func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	if idx := strings.Index(content, "\n"); idx >= 0 {
		content = content[idx+1:]
	} else {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSpace(content)
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

func parseKeywords(content string) ([]string, error) {
	content = stripFences(content)

	var raw []string
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		match := bracketSpan.FindStringSubmatch(content)
		if match == nil {
			return nil, ErrUnparseableResponse
		}
		raw = strings.Split(match[1], ",")
	}

	keywords := make([]string, 0, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		item = strings.Trim(item, `"'`)
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		keywords = append(keywords, item)
		if len(keywords) == MaxKeywords {
			break
		}
	}
	if len(keywords) == 0 {
		return nil, ErrUnparseableResponse
	}
	return keywords, nil
}

func parseBullets(content string) ([]BulletGroup, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, ErrUnparseableResponse
	}

	var items []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content[start:end+1]), &items); err != nil {
		return nil, ErrUnparseableResponse
	}
	if len(items) == 0 {
		return nil, ErrUnparseableResponse
	}

	groups := make([]BulletGroup, 0, len(items))
	for _, item := range items {
		group, ok := bulletGroup(item)
		if !ok {
			return nil, ErrUnparseableResponse
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func bulletGroup(item map[string]json.RawMessage) (BulletGroup, bool) {
	if rawCompany, ok := item["company"]; ok {
		if rawBullets, ok := item["bullets"]; ok {
			var group BulletGroup
			if json.Unmarshal(rawCompany, &group.Company) != nil || json.Unmarshal(rawBullets, &group.Bullets) != nil {
				return BulletGroup{}, false
			}
			return group, group.Company != ""
		}
	}
	if len(item) != 1 {
		return BulletGroup{}, false
	}
	for company, rawBullets := range item {
		var bullets []string
		if err := json.Unmarshal(rawBullets, &bullets); err != nil {
			return BulletGroup{}, false
		}
		return BulletGroup{Company: company, Bullets: bullets}, true
	}
	return BulletGroup{}, false
}
