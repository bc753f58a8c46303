package valueobject

// Truncate cuts s to at most limit runes and appends "..." when it did.
func Truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

// SplitFixed splits s into chunks of at most size runes. Boundaries are
// fixed offsets, not word breaks. An empty string yields no chunks.
func SplitFixed(s string, size int) []string {
	if size <= 0 {
		return []string{s}
	}
	r := []rune(s)
	chunks := make([]string, 0, len(r)/size+1)
	for start := 0; start < len(r); start += size {
		end := start + size
		if end > len(r) {
			end = len(r)
		}
		chunks = append(chunks, string(r[start:end]))
	}
	return chunks
}
