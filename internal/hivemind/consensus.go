package hivemind

import (
	"fmt"
	"strings"

	"github.com/apiarylabs/apiary/pkg/models"
)

// computeConsensus scores agreement across successful outputs as the mean
// pairwise Jaccard similarity of their keyword sets. Fewer than two
// successful outputs trivially agree.
func computeConsensus(outputs []models.AgentOutput) float64 {
	var contents []string
	for _, out := range outputs {
		if out.Success {
			contents = append(contents, out.Content)
		}
	}
	if len(contents) < 2 {
		return 1.0
	}

	sets := make([]map[string]bool, len(contents))
	for i, content := range contents {
		sets[i] = keywordSet(content)
	}

	var total float64
	pairs := 0
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			total += jaccard(sets[i], sets[j])
			pairs++
		}
	}
	return total / float64(pairs)
}

// keywordSet extracts the distinct lowercase words of at least 4
// characters.
func keywordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(s)) {
		if len(word) >= 4 {
			set[word] = true
		}
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	intersection := 0
	for w := range a {
		if b[w] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 1.0
	}
	return float64(intersection) / float64(union)
}

// synthesizeOutputs merges the role outputs into one deterministic
// document, one section per role, failures included.
func synthesizeOutputs(outputs []models.AgentOutput) string {
	var sections []string
	for _, out := range outputs {
		switch {
		case out.Success && out.Content != "":
			sections = append(sections, fmt.Sprintf("## %s (%s)\n\n%s", out.Role, out.Model, out.Content))
		case out.Error != "":
			sections = append(sections, fmt.Sprintf("## %s [FAILED]\n\nError: %s", out.Role, out.Error))
		}
	}
	if len(sections) == 0 {
		return "No agent outputs were produced."
	}
	return strings.Join(sections, "\n\n---\n\n")
}
