package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/giftgenius/internal/engine"
	"github.com/kalambet/giftgenius/internal/metrics"
	"github.com/kalambet/giftgenius/internal/models"
	"github.com/kalambet/giftgenius/internal/profile"
)

type fakeEngine struct {
	out   string
	err   error
	calls int
	last  engine.Request
}

func (f *fakeEngine) Generate(_ context.Context, req engine.Request) (string, error) {
	f.calls++
	f.last = req
	return f.out, f.err
}

type fakeSource struct {
	eng *fakeEngine
	err error
}

func (s fakeSource) For(context.Context, models.Provider) (engine.Engine, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.eng, nil
}

func newGateway(eng *fakeEngine) *Gateway {
	return New(models.DefaultRegistry(), fakeSource{eng: eng}, metrics.New())
}

func TestGenerateGifts_Success(t *testing.T) {
	eng := &fakeEngine{out: `{"gift_ideas":[{"id":"x","emoji":"🔪","title":"Couteau","category":"","price":"€€","reasoning":"• a","tags_used":["Cuisine","Japon","Voyage"]}]}`}
	g := newGateway(eng)

	p := profile.Default()
	p.Interests = []profile.Interest{{ID: "1", Label: "Cuisine", Level: profile.LevelExpert}}

	res, err := g.GenerateGifts(context.Background(), GiftRequest{Profile: p})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash-exp", res.Model)
	require.Len(t, res.Ideas, 1)
	assert.NotEqual(t, "x", res.Ideas[0].ID)
	assert.Equal(t, "Cuisine", res.Ideas[0].Category)
	assert.Len(t, res.Ideas[0].TagsUsed, 2)

	assert.Equal(t, 1, eng.calls)
	assert.Equal(t, GiftTemperature, eng.last.Temperature)
	assert.True(t, eng.last.JSON)
	assert.Contains(t, eng.last.User, "Cuisine (⭐⭐ EXPERT)")
}

func TestGenerateGifts_EmptyList(t *testing.T) {
	g := newGateway(&fakeEngine{out: `{"gift_ideas":[]}`})
	res, err := g.GenerateGifts(context.Background(), GiftRequest{Profile: profile.Default()})
	require.NoError(t, err)
	assert.NotNil(t, res.Ideas)
	assert.Empty(t, res.Ideas)
}

func TestGenerateGifts_NotJSON(t *testing.T) {
	g := newGateway(&fakeEngine{out: "not json"})
	_, err := g.GenerateGifts(context.Background(), GiftRequest{Profile: profile.Default()})

	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "gemini-2.0-flash-exp", se.Model)

	status, body := Describe(err)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.NotEmpty(t, body.Hint)
}

func TestGenerateGifts_MissingField(t *testing.T) {
	g := newGateway(&fakeEngine{out: `{"ideas":[]}`})
	_, err := g.GenerateGifts(context.Background(), GiftRequest{Profile: profile.Default()})
	var se *SchemaError
	assert.ErrorAs(t, err, &se)
}

func TestGenerateGifts_FencedJSONIsNotRepaired(t *testing.T) {
	g := newGateway(&fakeEngine{out: "```json\n{\"gift_ideas\":[]}\n```"})
	_, err := g.GenerateGifts(context.Background(), GiftRequest{Profile: profile.Default()})
	var se *SchemaError
	assert.ErrorAs(t, err, &se)
}

func TestGenerateGifts_UnknownModel(t *testing.T) {
	eng := &fakeEngine{out: `{"gift_ideas":[]}`}
	g := newGateway(eng)
	_, err := g.GenerateGifts(context.Background(), GiftRequest{Profile: profile.Default(), Model: "gpt-17"})

	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.True(t, errors.Is(err, models.ErrUnknownModel))
	assert.Equal(t, 0, eng.calls, "no provider may be called for an unknown model")

	status, _ := Describe(err)
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestGenerateGifts_MissingCredential(t *testing.T) {
	g := New(models.DefaultRegistry(), engine.NewSet(engine.Credentials{}), nil)
	_, err := g.GenerateGifts(context.Background(), GiftRequest{Profile: profile.Default(), Model: "llama-3.3-70b-versatile"})

	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	_, body := Describe(err)
	assert.Contains(t, body.Hint, engine.EnvGroqKey)
}

func TestGenerateGifts_ProviderError(t *testing.T) {
	g := newGateway(&fakeEngine{err: &engine.StatusError{Family: models.ProviderGoogle, StatusCode: 429, Err: errors.New("quota")}})
	_, err := g.GenerateGifts(context.Background(), GiftRequest{Profile: profile.Default()})

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, models.ProviderGoogle, pe.Provider)

	status, body := Describe(err)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.NotEmpty(t, body.Hint)
}

func TestGenerateGifts_BlankResponse(t *testing.T) {
	g := newGateway(&fakeEngine{out: "   "})
	_, err := g.GenerateGifts(context.Background(), GiftRequest{Profile: profile.Default()})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, engine.ErrEmptyResponse)
}

func TestGenerateGifts_InvalidProfile(t *testing.T) {
	eng := &fakeEngine{out: `{"gift_ideas":[]}`}
	g := newGateway(eng)
	p := profile.Default()
	p.SeriousFun = 150

	_, err := g.GenerateGifts(context.Background(), GiftRequest{Profile: p})
	status, body := Describe(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body.Details, "serieuxFun")
	assert.Equal(t, 0, eng.calls)
}

func TestSuggestTags(t *testing.T) {
	eng := &fakeEngine{out: `{"suggested_tags":["Yoga","yoga","Cinéma","Escalade"," "]}`}
	g := newGateway(eng)

	res, err := g.SuggestTags(context.Background(), TagRequest{
		CurrentTags: []string{"Jeux Vidéo"},
		Sliders:     map[string]int{"serieuxFun": 80},
		Ignored:     []string{"Cinéma"},
		Model:       "mixtral-8x7b-32768",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Yoga", "Escalade"}, res.Tags)
	assert.Equal(t, "mixtral-8x7b-32768", res.Model)
	assert.Equal(t, TagTemperature, eng.last.Temperature)
	assert.True(t, strings.Contains(eng.last.User, "Cinéma"))
}

func TestSuggestTags_SchemaError(t *testing.T) {
	g := newGateway(&fakeEngine{out: `{"suggested_tags":"Yoga"}`})
	_, err := g.SuggestTags(context.Background(), TagRequest{})
	var se *SchemaError
	assert.ErrorAs(t, err, &se)
}

func TestSuggestTags_InvalidSlider(t *testing.T) {
	g := newGateway(&fakeEngine{out: `{"suggested_tags":[]}`})
	_, err := g.SuggestTags(context.Background(), TagRequest{Sliders: map[string]int{"calmeEnergie": -3}})
	var re *RequestError
	assert.ErrorAs(t, err, &re)
}

func TestDescribe_Unknown(t *testing.T) {
	status, body := Describe(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "boom", body.Details)
}
