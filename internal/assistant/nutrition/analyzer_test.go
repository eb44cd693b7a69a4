package nutrition

import (
	"context"
	"errors"
	"testing"

	"github.com/dynprot/engine/internal/assistant"
	"github.com/dynprot/engine/internal/assistant/llm"
	"github.com/dynprot/engine/pkg/logger"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Use(zap.NewNop())
	m.Run()
}

type mockCompleter struct{ mock.Mock }

func (m *mockCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func replying(reply string, err error) *mockCompleter {
	c := &mockCompleter{}
	c.On("Complete", mock.Anything, mock.Anything).Return(reply, err)
	return c
}

var photo = llm.Image{Data: []byte{0xff, 0xd8, 0xff}, MediaType: "image/jpeg"}

const chickenReply = `{"foods":[{"name":"poulet","estimated_grams":150,"protein_per_100g":31,"protein_in_portion":46.5},{"name":"riz","estimated_grams":100,"protein_per_100g":2.7,"protein_in_portion":2.7}],"confidence":"high","reasoning":"assiette"}`

func TestAnalyzeTextFillsMissingTotal(t *testing.T) {
	a := NewAnalyzer(replying(chickenReply, nil))

	res := a.AnalyzeText(context.Background(), "150g de poulet et du riz")
	require.Len(t, res.Foods, 2)
	require.InDelta(t, 49.2, res.TotalProtein, 0.001)
	require.Equal(t, MethodText, res.Method)
	require.Equal(t, assistant.ConfidenceHigh, res.Confidence)
}

func TestAnalyzeTextNormalisesNegativesAndConfidence(t *testing.T) {
	reply := `{"foods":[{"name":"mystère","estimated_grams":-10,"protein_per_100g":5,"protein_in_portion":-3}],"total_protein":-3,"confidence":"certain","method":"autre"}`
	a := NewAnalyzer(replying(reply, nil))

	res := a.AnalyzeText(context.Background(), "un truc")
	require.Zero(t, res.TotalProtein)
	require.Zero(t, res.Foods[0].EstimatedGrams)
	require.Zero(t, res.Foods[0].ProteinInPortion)
	require.Equal(t, assistant.ConfidenceLow, res.Confidence)
	require.Equal(t, MethodText, res.Method)
}

func TestAnalyzeTextFailuresYieldCanonicalEmpty(t *testing.T) {
	cases := map[string]*Analyzer{
		"upstream error": NewAnalyzer(replying("", errors.New("503"))),
		"prose":          NewAnalyzer(replying("Je pense que c'est du poulet.", nil)),
		"missing foods":  NewAnalyzer(replying(`{"total_protein": 12}`, nil)),
		"no provider":    NewAnalyzer(nil),
	}
	for name, a := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, Empty(MethodText), a.AnalyzeText(context.Background(), "poulet"))
		})
	}
}

func TestAnalyzeImageFallsBackWithIdenticalRequest(t *testing.T) {
	primary := replying("", errors.New("overloaded"))
	secondary := replying(chickenReply, nil)

	a := NewAnalyzer(nil,
		Provider{Name: "claude", Completer: primary, MaxTokens: 1000},
		Provider{Name: "openai", Completer: secondary, MaxTokens: 500},
	)
	res := a.AnalyzeImage(context.Background(), photo, "j'en ai mangé la moitié")

	require.Equal(t, MethodImage, res.Method)
	require.Equal(t, "openai", res.Provider)
	require.InDelta(t, 49.2, res.TotalProtein, 0.001)

	first := primary.Calls[0].Arguments.Get(1).(llm.Request)
	second := secondary.Calls[0].Arguments.Get(1).(llm.Request)
	require.Equal(t, first.Prompt, second.Prompt)
	require.Equal(t, first.Image, second.Image)
	require.Contains(t, first.Prompt, "la moitié de ce qui est visible")
}

func TestAnalyzeImageSkipsProviderWithoutFoods(t *testing.T) {
	primary := replying(`{"foods":[],"total_protein":0,"confidence":"low"}`, nil)
	secondary := replying(chickenReply, nil)

	a := NewAnalyzer(nil, Provider{Name: "claude", Completer: primary}, Provider{Name: "openai", Completer: secondary})
	res := a.AnalyzeImage(context.Background(), photo, "")

	require.Len(t, res.Foods, 2)
	secondary.AssertNumberOfCalls(t, "Complete", 1)
}

func TestAnalyzeImageAllProvidersFail(t *testing.T) {
	a := NewAnalyzer(nil,
		Provider{Name: "claude", Completer: replying("", errors.New("down"))},
		Provider{Name: "openai", Completer: replying("pas de JSON", nil)},
	)
	require.Equal(t, Empty(MethodImage), a.AnalyzeImage(context.Background(), photo, "100g"))

	none := NewAnalyzer(nil)
	res := none.AnalyzeImage(context.Background(), photo, "")
	require.Equal(t, NoServiceReasoning, res.Reasoning)
	require.Empty(t, res.Foods)
	require.NotNil(t, res.Foods)
}
