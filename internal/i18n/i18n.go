// Package i18n is the translation gateway the merge engine's Change type
// calls through when it renders a human-visible type string. Only an
// identity implementation ships today; a real catalog can be wired in later
// without touching internal/merge.
package i18n

// Translator maps a message key to a human-visible string.
type Translator interface {
	Tr(key string) string
}

// identityTranslator returns key unchanged. It satisfies Translator.
type identityTranslator struct{}

func (identityTranslator) Tr(key string) string { return key }

// Identity is the default Translator: a no-op passthrough.
var Identity Translator = identityTranslator{}
