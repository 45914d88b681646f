package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-server/models"
)

func testPOI(id string, lat, lon, radius float64) models.POI {
	return models.POI{
		ID:          id,
		Name:        "Name " + id,
		Location:    models.Coordinates{Lat: lat, Lon: lon},
		Radius:      radius,
		Description: map[string]string{"en": "About " + id, "es": "Sobre " + id},
		Audio:       map[string]string{"en": id + "_en.mp3", "es": id + "_es.mp3"},
		Image:       id + ".jpg",
	}
}

func testAd(id string) models.Advertisement {
	return models.Advertisement{
		ID:          id,
		Name:        "Ad " + id,
		Description: map[string]string{"en": "Buy " + id, "es": "Compra " + id},
		Audio:       map[string]string{"en": id + "_en.mp3", "es": id + "_es.mp3"},
	}
}

func TestResolvePOIBuildsAbsoluteURLs(t *testing.T) {
	r := NewContentResolver("http://localhost:3001/", []string{"en", "es"})

	got, err := r.ResolvePOI(testPOI("p1", 0, 0, 50))
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, "http://localhost:3001/images/p1.jpg", got.Image)
	assert.Equal(t, map[string]string{
		"en": "http://localhost:3001/audio/p1_en.mp3",
		"es": "http://localhost:3001/audio/p1_es.mp3",
	}, got.Audio)
	assert.Equal(t, "Sobre p1", got.Description["es"])
}

func TestResolveRejectsMissingLanguage(t *testing.T) {
	r := NewContentResolver("http://x", []string{"en", "es"})

	p := testPOI("p1", 0, 0, 50)
	delete(p.Audio, "es")
	_, err := r.ResolvePOI(p)
	assert.ErrorContains(t, err, `"es" audio`)

	ad := testAd("ad-1")
	ad.Description = map[string]string{"en": "only english"}
	_, err = r.ResolveAd(ad)
	assert.ErrorContains(t, err, `"es" description`)
}

func TestURLKeepsAbsoluteAndEscapes(t *testing.T) {
	r := NewContentResolver("https://cdn.example.com", nil)
	assert.Equal(t, "https://other.example.com/a.mp3", r.URL(AudioPath, "https://other.example.com/a.mp3"))
	assert.Equal(t, "https://cdn.example.com/audio/la%20merced.mp3", r.URL(AudioPath, "la merced.mp3"))
	assert.Equal(t, "https://cdn.example.com/images/sub/x.png", r.URL(ImagePath, "/sub/x.png"))
}
