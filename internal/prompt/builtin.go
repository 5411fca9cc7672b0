package prompt

type builtin struct {
	key          Key
	file         string
	placeholders []string
	body         string
}

var (
	websitePlaceholders = []string{WebsiteURL, WebsiteContent, Domain, UserInstruction}
	refinePlaceholders  = []string{PriorArtifact, UserInstruction}
)

func with(base []string, extra ...string) []string {
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

var builtins = []builtin{
	{key: Key{"splash_page", "create", "professional"}, file: "splash_page_create_professional.tmpl", placeholders: with(websitePlaceholders, ButtonURL)},
	{key: Key{"splash_page", "create", "casual"}, file: "splash_page_create_casual.tmpl", placeholders: with(websitePlaceholders, ButtonURL)},
	{key: Key{"splash_page", "refine", "professional"}, file: "splash_page_refine_professional.tmpl", placeholders: with(refinePlaceholders, ButtonURL)},
	{key: Key{"splash_page", "refine", "casual"}, file: "splash_page_refine_casual.tmpl", placeholders: with(refinePlaceholders, ButtonURL)},

	{key: Key{"email", "create", "professional"}, file: "email_create_professional.tmpl", placeholders: websitePlaceholders},
	{key: Key{"email", "create", "salesy"}, file: "email_create_salesy.tmpl", placeholders: websitePlaceholders},
	{key: Key{"email", "refine", "professional"}, file: "email_refine_professional.tmpl", placeholders: refinePlaceholders},
	{key: Key{"email", "refine", "salesy"}, file: "email_refine_salesy.tmpl", placeholders: refinePlaceholders},

	{key: Key{"banner", "create", ""}, file: "banner_create.tmpl", placeholders: with(websitePlaceholders, Width, Height)},
	{key: Key{"banner", "refine", ""}, file: "banner_refine.tmpl", placeholders: with(refinePlaceholders, Width, Height)},

	{key: Key{"blurb", "create", ""}, file: "blurb_create.tmpl", placeholders: with(websitePlaceholders, Width, Height)},
	{key: Key{"blurb", "refine", ""}, file: "blurb_refine.tmpl", placeholders: with(refinePlaceholders, Width, Height)},

	{key: Key{"autocomplete", "create", "splash_page"}, file: "autocomplete_splash_page.tmpl", placeholders: []string{UserInstruction, Style}},
	{key: Key{"autocomplete", "create", "email"}, file: "autocomplete_email.tmpl", placeholders: []string{UserInstruction}},
	{key: Key{"autocomplete", "create", "banner"}, file: "autocomplete_banner.tmpl", placeholders: []string{UserInstruction}},
}
