package models

// Flag holds a checkbox-style value exactly as submitted. JSON booleans are
// normalised to "true"/"false"; strings are kept verbatim.
type Flag string

// True reports whether the flag is the literal true, either boolean true or the string "true".
func (f Flag) True() bool {
	return f == "true"
}

// Screenshot is the optional base64-encoded image attached to a submission.
type Screenshot struct {
	Data     string
	Filename string
	MimeType string
}

// Submission is the request-scoped form payload of the gallery intake endpoint.
type Submission struct {
	Name         string
	Email        string
	Style        string
	StyleID      string
	DemoURL      string
	Authenticity string
	Consent      Flag
	Marketing    Flag
	Screenshot   *Screenshot
}

// RequiredFields lists the form fields that must be non-empty, in the order
// they are reported back to the client.
var RequiredFields = []string{"name", "email", "style", "demoUrl", "authenticity"}

// Field returns the value of a required field by its wire name.
func (s *Submission) Field(name string) string {
	switch name {
	case "name":
		return s.Name
	case "email":
		return s.Email
	case "style":
		return s.Style
	case "demoUrl":
		return s.DemoURL
	case "authenticity":
		return s.Authenticity
	}
	return ""
}

// StyleLabel is the human readable style name used in notifications, falling
// back to the raw slug when the style could not be resolved.
func StyleLabel(title, slug string) string {
	if title != "" {
		return title
	}
	return slug
}
