package codec

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dictee/internal/models"
)

func TestParseMarkdown(t *testing.T) {
	content := "---\ntitle: Les fruits\nlanguage: fr-FR\n---\n\nLa pomme est rouge.\r\n\n  La banane est jaune.  \n"

	d, err := ParseMarkdown(content)
	require.NoError(t, err)
	assert.Equal(t, "Les fruits", d.Title)
	assert.Equal(t, "fr-FR", d.Language)
	assert.Equal(t, models.ContentSentences, d.Type)
	assert.Equal(t, []string{"La pomme est rouge.", "La banane est jaune."}, d.Sentences)
	assert.Empty(t, d.ID)
}

func TestParseMarkdown_WordsType(t *testing.T) {
	d, err := ParseMarkdown("---\ntitle: Mots\nlanguage: fr-FR\ntype: words\n---\nchat\nchien\n")
	require.NoError(t, err)
	assert.Equal(t, models.ContentWords, d.Type)
}

func TestParseMarkdown_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"empty", "", ErrMissingFrontMatter},
		{"no delimiter", "title: x\nlanguage: fr\nphrase", ErrMissingFrontMatter},
		{"unclosed", "---\ntitle: x\nlanguage: fr\nphrase", ErrUnclosedFrontMatter},
		{"no title", "---\nlanguage: fr\n---\nphrase", ErrMissingTitle},
		{"no language", "---\ntitle: x\n---\nphrase", ErrMissingLanguage},
		{"no units", "---\ntitle: x\nlanguage: fr\n---\n\n  \n", ErrNoUnits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMarkdown(tt.content)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGenerateMarkdown_RoundTrip(t *testing.T) {
	for _, contentType := range []models.ContentType{models.ContentSentences, models.ContentWords} {
		d := &models.Dictation{
			Title:     "Titre: avec deux-points",
			Language:  "en-US",
			Type:      contentType,
			Sentences: []string{"One.", "Two."},
		}

		md, err := GenerateMarkdown(d)
		require.NoError(t, err)
		assert.Equal(t, contentType == models.ContentWords, strings.Contains(md, "type: words"))

		back, err := ParseMarkdown(md)
		require.NoError(t, err)
		assert.Equal(t, d.Title, back.Title)
		assert.Equal(t, d.Language, back.Language)
		assert.Equal(t, d.Type, back.Type)
		assert.Equal(t, d.Sentences, back.Sentences)
	}
}

func TestGenerateMarkdown_Incomplete(t *testing.T) {
	_, err := GenerateMarkdown(&models.Dictation{Title: "x", Language: "fr"})
	assert.ErrorIs(t, err, ErrIncompleteDictation)
	_, err = GenerateMarkdown(nil)
	assert.ErrorIs(t, err, ErrIncompleteDictation)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Les Fruits", "les-fruits"},
		{"  Dictée n°3 !  ", "dict-e-n-3"},
		{"---", "dictee"},
		{"CE2 / Période 1", "ce2-p-riode-1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), tt.in)
	}
}

func TestParseLegacyURL(t *testing.T) {
	raw := "https://micetf.fr/dictee/?tl=en&titre=Ma%20dict%C3%A9e&d[1]=66|111|110|106|111|117|114&d[2]=233|116|233&d[4]=65"

	d, err := ParseLegacyURL(raw)
	require.NoError(t, err)
	assert.Equal(t, "Ma dictée", d.Title)
	assert.Equal(t, "en-US", d.Language)
	assert.Equal(t, []string{"Bonjour", "été"}, d.Sentences)
}

func TestParseLegacyURL_QueryStringOnly(t *testing.T) {
	d, err := ParseLegacyURL("d%5B1%5D=72|105&lang=XX")
	require.NoError(t, err)
	assert.Equal(t, "Dictée migrée", d.Title)
	assert.Equal(t, "xx", d.Language)
	assert.Equal(t, []string{"Hi"}, d.Sentences)
}

func TestParseLegacyURL_SkipsUndecodableUnits(t *testing.T) {
	d, err := ParseLegacyURL("?d[1]=abc&d[2]=79|75")
	require.NoError(t, err)
	assert.Equal(t, []string{"OK"}, d.Sentences)
	assert.Equal(t, "fr-FR", d.Language)
}

func TestParseLegacyURL_Errors(t *testing.T) {
	_, err := ParseLegacyURL("   ")
	assert.ErrorIs(t, err, ErrInvalidLegacyURL)

	_, err = ParseLegacyURL("https://micetf.fr/dictee/?titre=Vide")
	assert.ErrorIs(t, err, ErrNoUnits)
}

func TestParseLegacyURL_StopsAtLimit(t *testing.T) {
	params := make([]string, 0, 120)
	for i := 1; i <= 120; i++ {
		params = append(params, fmt.Sprintf("d[%d]=65", i))
	}

	d, err := ParseLegacyURL("?" + strings.Join(params, "&"))
	require.NoError(t, err)
	assert.Len(t, d.Sentences, 100)
}

func TestIsLegacyURL(t *testing.T) {
	assert.True(t, IsLegacyURL("https://micetf.fr/dictee/?d[1]=65"))
	assert.True(t, IsLegacyURL("?D[1]=65"))
	assert.False(t, IsLegacyURL("https://micetf.fr/dictee/file.md"))
	assert.False(t, IsLegacyURL("https://example.com"))
}

func TestShareRoundTrip(t *testing.T) {
	d := &models.Dictation{
		Title:     "Les élèves",
		Language:  "fr-FR",
		Type:      models.ContentWords,
		Sentences: []string{"école", "cahier"},
	}

	encoded, err := EncodeShare(d)
	require.NoError(t, err)

	back, err := DecodeShare(encoded)
	require.NoError(t, err)
	assert.Equal(t, d.Title, back.Title)
	assert.Equal(t, d.Language, back.Language)
	assert.Equal(t, d.Type, back.Type)
	assert.Equal(t, d.Sentences, back.Sentences)
}

func TestDecodeShare_Invalid(t *testing.T) {
	for _, in := range []string{"not base64!", "bm90IGpzb24=", "eyJ0aXRsZSI6IngifQ=="} {
		_, err := DecodeShare(in)
		assert.ErrorIs(t, err, ErrInvalidShare, in)
	}
}

func TestShareLink(t *testing.T) {
	d := &models.Dictation{Title: "Court", Language: "fr-FR", Sentences: []string{"Une phrase."}}

	link, err := ShareLink(d, "https://dictee.example.org/")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://dictee.example.org/?share="))
	assert.LessOrEqual(t, len(link), MaxShareURLLength)
}

func TestShareLink_Limits(t *testing.T) {
	many := &models.Dictation{Title: "x", Language: "fr", Sentences: make([]string, MaxShareUnits+1)}
	_, err := ShareLink(many, "https://a")
	assert.ErrorIs(t, err, ErrTooManyUnits)

	long := &models.Dictation{Title: "x", Language: "fr", Sentences: []string{strings.Repeat("a", 1600)}}
	_, err = ShareLink(long, "https://a")
	assert.ErrorIs(t, err, ErrURLTooLong)
}

func TestCloudShareLink(t *testing.T) {
	link := CloudShareLink("https://codimd.example.org/s/abc", "https://app")
	assert.Equal(t, "https://app/?cloud=https%3A%2F%2Fcodimd.example.org%2Fs%2Fabc", link)
	assert.Equal(t, "CodiMD", CloudServiceName("https://codimd.example.org/s/abc"))
	assert.Equal(t, "Nuage", CloudServiceName("https://nuage.apps.education.fr/x"))
	assert.Equal(t, "Cloud", CloudServiceName("https://example.org/x.md"))
}
