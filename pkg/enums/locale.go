package enums

// Locale selects the language used for outbound email and notification copy.
type Locale string

const (
	LocaleRussian  Locale = "ru"
	LocaleEstonian Locale = "et"
)

// IsValid reports whether the value is a supported locale.
func (l Locale) IsValid() bool {
	return l == LocaleRussian || l == LocaleEstonian
}

// OrDefault falls back to Russian, the marketplace's primary language.
func (l Locale) OrDefault() Locale {
	if l.IsValid() {
		return l
	}
	return LocaleRussian
}
