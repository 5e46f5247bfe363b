package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jwhan/marketbrief/internal/model"
)

const maxKeywords = 12

// NewRunID returns a unique identifier tying both artifacts of a run
// together.
func NewRunID(briefingDate string) string {
	return briefingDate + "-" + uuid.NewString()[:8]
}

// WriteArtifacts persists the briefing markdown and its metadata JSON
// under dir. Both files are written to a temp file first and renamed
// into place, so a cancelled or crashed run never leaves a partial
// artifact behind. Returns the two final paths.
func WriteArtifacts(dir string, result *RunResult) (mdPath, jsonPath string, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("create output dir: %w", err)
	}

	base := "briefing_" + result.Meta.BriefingDate
	mdPath = filepath.Join(dir, base+".md")
	jsonPath = filepath.Join(dir, base+".meta.json")

	doc := renderBriefing(result)
	if err := writeAtomic(mdPath, []byte(doc)); err != nil {
		return "", "", fmt.Errorf("write briefing: %w", err)
	}

	meta, err := json.MarshalIndent(result.Meta, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encode metadata: %w", err)
	}
	if err := writeAtomic(jsonPath, append(meta, '\n')); err != nil {
		return "", "", fmt.Errorf("write metadata: %w", err)
	}
	return mdPath, jsonPath, nil
}

// renderBriefing appends a references section, grouped by source type,
// to the briefing text.
func renderBriefing(result *RunResult) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(result.Briefing, "\n"))
	sb.WriteString("\n")

	if len(result.References) == 0 {
		return sb.String()
	}

	byType := make(map[string][]model.SourceReference)
	for _, ref := range result.References {
		byType[ref.SourceType] = append(byType[ref.SourceType], ref)
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	sb.WriteString("\n---\n\n## References\n")
	for _, t := range types {
		fmt.Fprintf(&sb, "\n### %s\n\n", t)
		refs := byType[t]
		sort.Slice(refs, func(i, j int) bool { return refs[i].Key < refs[j].Key })
		for _, ref := range refs {
			if ref.Title != "" {
				fmt.Fprintf(&sb, "- %s (`%s`)\n", ref.Title, ref.Key)
			} else {
				fmt.Fprintf(&sb, "- `%s`\n", ref.Key)
			}
		}
	}
	return sb.String()
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

var wordPattern = regexp.MustCompile(`[A-Za-z][A-Za-z&-]{3,}`)

var stopwords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "were": true,
	"have": true, "been": true, "their": true, "which": true, "while": true,
	"after": true, "before": true, "about": true, "above": true, "below": true,
	"today": true, "briefing": true, "percent": true, "points": true,
	"higher": true, "lower": true, "compared": true, "during": true,
	"references": true, "source": true, "data": true, "also": true,
	"than": true, "over": true, "into": true, "more": true, "most": true,
}

// ExtractKeywords pulls the most frequent non-trivial words out of the
// briefing text for the metadata artifact.
func ExtractKeywords(text string, limit int) []string {
	counts := make(map[string]int)
	for _, w := range wordPattern.FindAllString(text, -1) {
		lw := strings.ToLower(w)
		if stopwords[lw] {
			continue
		}
		counts[lw]++
	}
	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > limit {
		words = words[:limit]
	}
	sort.Strings(words)
	return words
}
