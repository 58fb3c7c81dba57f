package cloud

import (
	"regexp"
	"strings"
)

// Service identifies where a cloud link points
type Service string

const (
	ServiceCodiMD      Service = "codimd"
	ServiceDropbox     Service = "dropbox"
	ServiceGoogleDrive Service = "gdrive"
	ServiceRaw         Service = "raw"
)

var serviceLabels = map[Service]string{
	ServiceCodiMD:      "CodiMD / HedgeDoc",
	ServiceDropbox:     "Dropbox",
	ServiceGoogleDrive: "Google Drive",
	ServiceRaw:         "Lien direct",
}

// Label returns a display name for the service
func (s Service) Label() string {
	if label, ok := serviceLabels[s]; ok {
		return label
	}
	return "Inconnu"
}

// Info describes a cloud link
type Info struct {
	Service       Service `json:"service"`
	Label         string  `json:"label"`
	NormalizedURL string  `json:"normalized_url"`
}

// Describe detects the service behind rawURL and its download URL
func Describe(rawURL string) Info {
	service := Detect(rawURL)
	return Info{
		Service:       service,
		Label:         service.Label(),
		NormalizedURL: Normalize(rawURL),
	}
}

// Detect guesses the hosting service from the URL
func Detect(rawURL string) Service {
	lower := strings.ToLower(rawURL)
	switch {
	case strings.Contains(lower, "codimd"), strings.Contains(lower, "hedgedoc"):
		return ServiceCodiMD
	case strings.Contains(lower, "dropbox"):
		return ServiceDropbox
	case strings.Contains(lower, "drive.google.com"):
		return ServiceGoogleDrive
	default:
		return ServiceRaw
	}
}

// Normalize rewrites a sharing link into a direct download link
func Normalize(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	switch Detect(rawURL) {
	case ServiceCodiMD:
		return normalizeCodiMD(rawURL)
	case ServiceDropbox:
		return normalizeDropbox(rawURL)
	case ServiceGoogleDrive:
		return normalizeGoogleDrive(rawURL)
	default:
		return rawURL
	}
}

// https://codimd.example.org/abc and /s/abc both become /s/abc/download
func normalizeCodiMD(rawURL string) string {
	if strings.Contains(rawURL, "/download") {
		return rawURL
	}

	clean := strings.TrimSuffix(rawURL, "/")
	if strings.Contains(clean, "/s/") {
		return clean + "/download"
	}

	i := strings.LastIndex(clean, "/")
	return clean[:i] + "/s/" + clean[i+1:] + "/download"
}

func normalizeDropbox(rawURL string) string {
	out := strings.Replace(rawURL, "www.dropbox.com", "dl.dropboxusercontent.com", 1)
	out = strings.Replace(out, "?dl=0", "?dl=1", 1)
	if strings.HasSuffix(out, "&dl=0") {
		out = strings.TrimSuffix(out, "&dl=0") + "&dl=1"
	}
	return out
}

var driveFileID = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)

func normalizeGoogleDrive(rawURL string) string {
	m := driveFileID.FindStringSubmatch(rawURL)
	if m == nil {
		return rawURL
	}
	return "https://drive.google.com/uc?export=download&id=" + m[1]
}
