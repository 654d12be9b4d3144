package validation

import (
	"reflect"
	"regexp"
	"strings"
)

// rule is a single substitution applied by Sanitize.
type rule struct {
	name    string
	pattern *regexp.Regexp
}

// rules are applied in order; script and style blocks go before generic tag stripping
// so their bodies are removed too.
var rules = []rule{
	{"script_block", regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)},
	{"style_block", regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style\s*>`)},
	{"html_tag", regexp.MustCompile(`(?s)</?[a-zA-Z!][^>]*>`)},
	{"script_uri", regexp.MustCompile(`(?i)\b(?:javascript|vbscript)\s*:`)},
	{"html_data_uri", regexp.MustCompile(`(?i)\bdata\s*:\s*text/html`)},
	{"event_handler", regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)},
	{"sql_comment", regexp.MustCompile(`--|/\*|\*/`)},
	{"sql_union", regexp.MustCompile(`(?i)\bunion\s+(?:all\s+)?select\b`)},
	{"sql_stacked", regexp.MustCompile(`(?i);\s*(?:drop|delete|insert|update|alter|truncate|create|exec)\b`)},
	{"null_byte", regexp.MustCompile("\x00")},
}

// Sanitize scrubs s with the blacklist rules until none match and trims
// surrounding space.
func Sanitize(s string) string {
	clean, _ := sanitize(s)
	return clean
}

// IsSuspicious reports whether any blacklist rule matches s.
func IsSuspicious(s string) bool {
	for _, r := range rules {
		if r.pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// MatchedRules returns the names of the rules that match s.
func MatchedRules(s string) []string {
	var matched []string
	for _, r := range rules {
		if r.pattern.MatchString(s) {
			matched = append(matched, r.name)
		}
	}
	return matched
}

// maxSanitizePasses bounds the rule passes for one value. Deleting a match can
// join its neighbours into a new match, so passes repeat until nothing changes.
const maxSanitizePasses = 8

func sanitize(s string) (string, bool) {
	suspicious := false
	for pass := 0; pass < maxSanitizePasses; pass++ {
		changed := false
		for _, r := range rules {
			if r.pattern.MatchString(s) {
				changed = true
				s = r.pattern.ReplaceAllString(s, "")
			}
		}
		if !changed {
			return strings.TrimSpace(s), suspicious
		}
		suspicious = true
	}

	// Still rebuilding markup after every pass: drop the value.
	if IsSuspicious(s) {
		return "", true
	}
	return strings.TrimSpace(s), suspicious
}

// SanitizeStruct scrubs every exported string reachable from ptr in place:
// string, *string, []string and map[string]string fields, recursing into nested
// structs and slices of structs. Fields tagged `sanitize:"-"` are left alone.
// It reports whether any value looked suspicious.
func SanitizeStruct(ptr any) bool {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return false
	}
	return sanitizeValue(v.Elem())
}

func sanitizeValue(v reflect.Value) bool {
	suspicious := false

	switch v.Kind() {
	case reflect.String:
		if v.CanSet() {
			clean, bad := sanitize(v.String())
			v.SetString(clean)
			suspicious = bad
		}

	case reflect.Pointer:
		if !v.IsNil() {
			suspicious = sanitizeValue(v.Elem())
		}

	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			if sanitizeValue(v.Index(i)) {
				suspicious = true
			}
		}

	case reflect.Map:
		if v.Type().Elem().Kind() != reflect.String || v.IsNil() {
			break
		}
		iter := v.MapRange()
		for iter.Next() {
			clean, bad := sanitize(iter.Value().String())
			v.SetMapIndex(iter.Key(), reflect.ValueOf(clean).Convert(v.Type().Elem()))
			if bad {
				suspicious = true
			}
		}

	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() || field.Tag.Get("sanitize") == "-" {
				continue
			}
			if sanitizeValue(v.Field(i)) {
				suspicious = true
			}
		}
	}

	return suspicious
}
