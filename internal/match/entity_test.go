package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gustavohm/granabot/internal/model"
)

func TestEntity(t *testing.T) {
	candidates := []Candidate{
		{ID: "c1", Name: "Mercado", Group: "Alimentação"},
		{ID: "c2", Name: "Energia", Group: "Moradia"},
		{ID: "c3", Name: "Transporte", Group: "Mobilidade"},
		{ID: "c4", Name: "Plano de Saúde", Group: "Saúde"},
	}

	tests := []struct {
		name           string
		hint           string
		wantID         string
		wantConfidence float64
		wantNone       bool
	}{
		{
			name:           "exact match after normalization",
			hint:           "mercado",
			wantID:         "c1",
			wantConfidence: 1.0,
		},
		{
			name:           "exact match ignores case and diacritics",
			hint:           "PLANO DE SAUDE",
			wantID:         "c4",
			wantConfidence: 1.0,
		},
		{
			name:           "hint contained in candidate name",
			hint:           "saude",
			wantID:         "c4",
			wantConfidence: 0.8,
		},
		{
			name:           "candidate name contained in hint",
			hint:           "mercado da esquina",
			wantID:         "c1",
			wantConfidence: 0.8,
		},
		{
			name:           "alias group match",
			hint:           "luz",
			wantID:         "c2",
			wantConfidence: 0.7,
		},
		{
			name:           "substring beats alias when the literal text overlaps",
			hint:           "supermercado",
			wantID:         "c1",
			wantConfidence: 0.8,
		},
		{
			name:           "alias group match through synonym",
			hint:           "feira",
			wantID:         "c1",
			wantConfidence: 0.7,
		},
		{
			name:           "parent group fallback",
			hint:           "mobilidade",
			wantID:         "c3",
			wantConfidence: 0.6,
		},
		{
			name:     "empty hint yields none",
			hint:     "   ",
			wantNone: true,
		},
		{
			name:     "unrelated hint yields none",
			hint:     "paraquedismo",
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Entity(tt.hint, candidates)
			if tt.wantNone {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.EntityID)
			assert.InDelta(t, tt.wantConfidence, got.Confidence, 0.001)
		})
	}
}

func TestEntityPriorityOrder(t *testing.T) {
	// Two candidates where the hint matches one exactly and the other by
	// substring: the exact tier must win even though the substring candidate
	// appears first in the list.
	candidates := []Candidate{
		{ID: "broad", Name: "Mercado e Feira"},
		{ID: "exact", Name: "Mercado"},
	}

	got := Entity("mercado", candidates)
	require.NotNil(t, got)
	assert.Equal(t, "exact", got.EntityID)
	assert.InDelta(t, 1.0, got.Confidence, 0.001)
}

func TestCandidateAdapters(t *testing.T) {
	cats := CategoryCandidates([]model.Category{
		{ID: "a", Name: "Ativa", GroupName: "G", IsActive: true},
		{ID: "b", Name: "Inativa", IsActive: false},
	})
	require.Len(t, cats, 1)
	assert.Equal(t, "a", cats[0].ID)
	assert.Equal(t, "G", cats[0].Group)

	srcs := IncomeSourceCandidates([]model.IncomeSource{
		{ID: "s1", Name: "Salário", IsActive: true},
	})
	require.Len(t, srcs, 1)
	assert.Empty(t, srcs[0].Group)
}

func TestWordOverlap(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "identical phrase", a: "energia eletrica", b: "energia eletrica", want: 1.0},
		{name: "self overlap is one", a: "vale refeicao empresa", b: "vale refeicao empresa", want: 1.0},
		{name: "substring token counts", a: "luz", b: "luz apartamento", want: 0.5},
		{name: "stopwords dropped", a: "paguei a conta de luz", b: "luz", want: 1.0},
		{name: "no shared tokens", a: "cinema", b: "farmacia", want: 0.0},
		{name: "empty after stopwords", a: "de da do", b: "luz", want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, WordOverlap(tt.a, tt.b), 0.001)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "cafe da manha", Normalize("  Café da Manhã "))
	assert.Equal(t, "acucar", Normalize("AÇÚCAR"))
	assert.Equal(t, "", Normalize("   "))
}
