package vintagepress

import "strings"

// wordsPerMinute is the reading speed assumed when estimating reading time.
const wordsPerMinute = 200

// ReadingTime estimates reading time in minutes for a post body, always ≥ 1.
func ReadingTime(body string) int {
	words := len(strings.Fields(body))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// FilterEmpty removes empty/whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// tagString joins tags into the comma-wrapped storage form (",a,b,") so a
// single tag can be matched with instr against ","+tag+",". Tags are
// normalized to lowercase.
func tagString(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	normalized := make([]string, len(tags))
	for i, t := range tags {
		normalized[i] = strings.ToLower(strings.TrimSpace(t))
	}
	return "," + strings.Join(normalized, ",") + ","
}

// parseTags splits a comma-wrapped tag string (e.g. ",monsoon,tea,") into a slice.
func parseTags(s string) []string {
	s = strings.Trim(s, ",")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
