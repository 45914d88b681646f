package services

import (
	"fmt"
	"net/url"
	"strings"

	"tour-server/models"
)

const (
	AudioPath = "/audio/"
	ImagePath = "/images/"
)

// ContentResolver turns catalog records into broadcast payloads: every
// configured language must be present and bare filenames become absolute URLs
// under baseURL.
type ContentResolver struct {
	baseURL   string
	languages []string
}

func NewContentResolver(baseURL string, languages []string) *ContentResolver {
	return &ContentResolver{baseURL: strings.TrimRight(baseURL, "/"), languages: languages}
}

func (r *ContentResolver) Languages() []string {
	out := make([]string, len(r.languages))
	copy(out, r.languages)
	return out
}

func (r *ContentResolver) ResolvePOI(p models.POI) (models.ResolvedContent, error) {
	return r.resolve(p.ID, p.Name, p.Description, p.Audio, p.Image)
}

func (r *ContentResolver) ResolveAd(a models.Advertisement) (models.ResolvedContent, error) {
	return r.resolve(a.ID, a.Name, a.Description, a.Audio, a.Image)
}

func (r *ContentResolver) resolve(id, name string, description, audio map[string]string, image string) (models.ResolvedContent, error) {
	out := models.ResolvedContent{
		ID:          id,
		Name:        name,
		Description: make(map[string]string, len(r.languages)),
		Audio:       make(map[string]string, len(r.languages)),
	}
	for _, lang := range r.languages {
		desc := description[lang]
		if desc == "" {
			return models.ResolvedContent{}, fmt.Errorf("%s: missing %q description", id, lang)
		}
		file := audio[lang]
		if file == "" {
			return models.ResolvedContent{}, fmt.Errorf("%s: missing %q audio", id, lang)
		}
		out.Description[lang] = desc
		out.Audio[lang] = r.URL(AudioPath, file)
	}
	if image != "" {
		out.Image = r.URL(ImagePath, image)
	}
	return out, nil
}

// URL makes ref absolute under prefix. References that already carry a
// scheme are returned unchanged.
func (r *ContentResolver) URL(prefix, ref string) string {
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	ref = strings.TrimLeft(ref, "/")
	segments := strings.Split(ref, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return r.baseURL + prefix + strings.Join(segments, "/")
}
