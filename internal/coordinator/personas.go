// Package coordinator implements the dependency-task coordination engine:
// a persona registry, task plans executed in dependency waves under cost
// and time sub-limits, and per-task results.
package coordinator

import (
	"strings"

	"github.com/apiarylabs/apiary/pkg/models"
)

// Persona is a reusable agent profile: a system prompt plus model tier
// and output budget.
type Persona struct {
	// Kind identifies the persona.
	Kind models.PersonaKind
	// Name is the human-readable name.
	Name string
	// Tier selects the default model class.
	Tier models.ModelTier
	// MaxTokens caps the completion length.
	MaxTokens int64
	// SystemPrompt frames every call made with this persona.
	SystemPrompt string
}

// Registry holds the available personas. Built-ins can be replaced by
// registering a custom persona with the same kind.
type Registry struct {
	personas map[models.PersonaKind]Persona
}

// NewRegistry creates a registry seeded with the built-in personas.
func NewRegistry() *Registry {
	r := &Registry{personas: make(map[models.PersonaKind]Persona)}
	for _, p := range builtinPersonas() {
		r.personas[p.Kind] = p
	}
	return r
}

// Get returns the persona for a kind, falling back to the implementer.
func (r *Registry) Get(kind models.PersonaKind) Persona {
	if p, ok := r.personas[kind]; ok {
		return p
	}
	return r.personas[models.PersonaImplement]
}

// Register adds or replaces a persona.
func (r *Registry) Register(p Persona) {
	r.personas[p.Kind] = p
}

// FindByName looks up a persona by case-insensitive name.
func (r *Registry) FindByName(name string) (Persona, bool) {
	for _, p := range r.personas {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Persona{}, false
}

// All returns every registered persona.
func (r *Registry) All() []Persona {
	out := make([]Persona, 0, len(r.personas))
	for _, p := range r.personas {
		out = append(out, p)
	}
	return out
}

// Count returns the number of registered personas.
func (r *Registry) Count() int {
	return len(r.personas)
}

func builtinPersonas() []Persona {
	return []Persona{
		{
			Kind:      models.PersonaInvestigate,
			Name:      "Investigator",
			Tier:      models.TierPremium,
			MaxTokens: 8192,
			SystemPrompt: "You are an expert code investigator. Your role is to perform deep codebase analysis: " +
				"trace dependencies, understand architecture, map call graphs, and identify how components interact. " +
				"Read broadly before drawing conclusions. Present findings as structured analysis with references to " +
				"specific files and line numbers. Never guess, trace every claim to source.",
		},
		{
			Kind:      models.PersonaImplement,
			Name:      "Implementer",
			Tier:      models.TierMid,
			MaxTokens: 8192,
			SystemPrompt: "You are an expert software engineer. Write clean, efficient, well-tested code that follows " +
				"the project's established conventions. Handle edge cases explicitly. Prefer simple, readable solutions " +
				"over clever ones. Include proper error handling, documentation, and type annotations. Every change " +
				"must compile and pass existing tests.",
		},
		{
			Kind:      models.PersonaVerify,
			Name:      "Verifier",
			Tier:      models.TierMid,
			MaxTokens: 4096,
			SystemPrompt: "You are a testing and verification expert. Run tests, validate correctness against " +
				"requirements, and check for regressions. Write new tests for uncovered paths. Report pass/fail status " +
				"with evidence. Check both happy paths and error conditions. Ensure the build is green before approving.",
		},
		{
			Kind:      models.PersonaCritique,
			Name:      "Critic",
			Tier:      models.TierPremium,
			MaxTokens: 4096,
			SystemPrompt: "You are a senior engineering critic. Review code and designs for quality, maintainability, " +
				"and adherence to best practices. Identify potential issues, anti-patterns, unnecessary complexity, and " +
				"missing error handling. Be thorough but constructive; every criticism must include a specific " +
				"suggestion for improvement.",
		},
		{
			Kind:      models.PersonaDebug,
			Name:      "Debugger",
			Tier:      models.TierMid,
			MaxTokens: 8192,
			SystemPrompt: "You are a systematic debugging expert. Analyze error messages, stack traces, and logs to " +
				"identify root causes. Reproduce issues when possible. Use binary search and hypothesis testing to " +
				"narrow down problems. Propose targeted fixes that address the root cause, not symptoms. Document the " +
				"debugging process for future reference.",
		},
		{
			Kind:      models.PersonaCodeReview,
			Name:      "Code Reviewer",
			Tier:      models.TierPremium,
			MaxTokens: 4096,
			SystemPrompt: "You are a meticulous code reviewer focused on three areas: (1) Style: naming conventions, " +
				"formatting, documentation standards. (2) Security: injection vulnerabilities, data leaks, insecure " +
				"defaults, input validation gaps. (3) Performance: unnecessary allocations, O(n^2) algorithms, blocking " +
				"calls in async contexts, missing caching opportunities. Rate severity (info/warning/critical) for " +
				"each finding.",
		},
	}
}
