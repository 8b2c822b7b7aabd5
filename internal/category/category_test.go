package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/GSC_GO/internal/apperr"
	"github.com/AngelCh415/GSC_GO/internal/models"
)

func testConfig(t *testing.T, groups ...Rule) Config {
	t.Helper()
	cfg, err := NewConfig("acme", groups, []string{"link de pago"}, nil)
	require.NoError(t, err)
	return cfg
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "maquina pago", Normalize("  Máquina PAGO "))
	assert.Equal(t, "", Normalize("   "))
	assert.Equal(t, "trans bank", Normalize("Trans Bank"))
}

func TestClassify_MultiMembership(t *testing.T) {
	cfg := testConfig(t,
		Rule{Name: "tbk", Terms: []string{"transbank"}, Brand: true},
		Rule{Name: "webpay", Terms: []string{"webpay"}, Brand: true},
		Rule{Name: "pos", Terms: []string{"maquina"}},
	)
	m := NewMatcher(cfg)

	c := m.Classify("Webpay TRANSBANK máquina")
	assert.Equal(t, []string{"tbk", "webpay", "pos"}, c.Groups)
	assert.True(t, c.Branded)
	assert.False(t, c.Important)

	topicOnly := m.Classify("maquina para cobrar")
	assert.Equal(t, []string{"pos"}, topicOnly.Groups)
	assert.False(t, topicOnly.Branded)
	assert.Equal(t, []string{"pos", LabelNonBranded}, m.Labels("maquina para cobrar"))

	assert.True(t, m.Classify("crear link de pago").Important)
}

func TestFirstGroup_ConfigOrder(t *testing.T) {
	tbk := Rule{Name: "tbk", Terms: []string{"transbank"}, Brand: true}
	webpay := Rule{Name: "webpay", Terms: []string{"webpay"}, Brand: true}

	assert.Equal(t, "tbk", NewMatcher(testConfig(t, tbk, webpay)).FirstGroup("webpay transbank"))
	assert.Equal(t, "webpay", NewMatcher(testConfig(t, webpay, tbk)).FirstGroup("webpay transbank"))
	assert.Equal(t, "", NewMatcher(testConfig(t, tbk)).FirstGroup("zapatos"))
}

func TestClassify_EmptyText(t *testing.T) {
	m := NewMatcher(testConfig(t, Rule{Name: "tbk", Terms: []string{"transbank"}, Brand: true}))
	c := m.Classify("")
	assert.Empty(t, c.Groups)
	assert.False(t, c.Branded)
	assert.Equal(t, []string{LabelNonBranded}, m.Labels("  "))
}

func TestClassify_OrderIndependentAndIdempotent(t *testing.T) {
	a := Rule{Name: "tbk", Terms: []string{"transbank", "tbk"}, Brand: true}
	b := Rule{Name: "webpay", Terms: []string{"webpay", "web pay"}, Brand: true}
	m1 := NewMatcher(testConfig(t, a, b))
	m2 := NewMatcher(testConfig(t, b, a))

	for _, text := range []string{"tbk web pay", "webpay", "zapatos rojos", "TransBank"} {
		first := m1.Classify(text)
		assert.Equal(t, first, m1.Classify(text), text)
		assert.ElementsMatch(t, first.Groups, m2.Classify(text).Groups, text)
	}
}

func TestClassify_DistinctVariantsAreNotFuzzy(t *testing.T) {
	m := NewMatcher(testConfig(t, Rule{Name: "tbk", Terms: []string{"transbank"}, Brand: true}))
	assert.Empty(t, m.Classify("trans bank").Groups)
}

func TestClassify_EmptyTermsNeverMatch(t *testing.T) {
	m := NewMatcher(testConfig(t, Rule{Name: "empty", Terms: []string{"", "  "}, Brand: true}))
	assert.Empty(t, m.Classify("anything").Groups)
}

func TestValidate(t *testing.T) {
	_, err := NewConfig("x", []Rule{{Name: "a"}, {Name: "a"}}, nil, nil)
	assert.True(t, apperr.IsConfiguration(err))

	_, err = NewConfig("x", []Rule{{Name: LabelTotal}}, nil, nil)
	assert.True(t, apperr.IsConfiguration(err))

	_, err = NewConfig("x", nil, nil, nil, models.Dimension("device"))
	assert.True(t, apperr.IsConfiguration(err))

	cfg, err := NewConfig("x", []Rule{{Name: "a"}}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []models.Dimension{models.DimensionQuery}, cfg.Dimensions)
}

func TestParse_KeepsGroupOrder(t *testing.T) {
	cfg, err := Parse([]byte(`
client: demo
dimensions: [query, page]
brands:
  zeta: [z]
  alpha: [a]
topics:
  wine: [vino, vinos]
important_keywords: [comprar]
subdomains: [tienda.demo.cl]
`))
	require.NoError(t, err)
	require.Len(t, cfg.Groups, 3)
	assert.Equal(t, "zeta", cfg.Groups[0].Name)
	assert.True(t, cfg.Groups[0].Brand)
	assert.Equal(t, "wine", cfg.Groups[2].Name)
	assert.False(t, cfg.Groups[2].Brand)
	assert.Contains(t, cfg.Dimensions, models.DimensionPage)
	assert.Equal(t, []string{"tienda.demo.cl"}, cfg.Subdomains)
}

func TestParse_DuplicateAcrossBrandsAndTopics(t *testing.T) {
	_, err := Parse([]byte("brands:\n  a: [x]\ntopics:\n  a: [y]\n"))
	assert.True(t, apperr.IsConfiguration(err))
}

func TestFromMap(t *testing.T) {
	cfg, err := FromMap(map[string]any{
		"client": "santa-maria",
		"brands": map[string]any{
			"productos": []any{"vino", "vinos"},
			"principal": []any{"santa maria", "santamaria"},
		},
		"important_keywords": []any{"comprar", "precio"},
		"dimensions":         []any{"query", "page"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"principal", "productos"}, NewMatcher(cfg).GroupNames())
	assert.Len(t, cfg.Dimensions, 2)
}

func TestPreset(t *testing.T) {
	assert.Contains(t, PresetNames(), "transbank")

	cfg, err := Preset("transbank")
	require.NoError(t, err)
	m := NewMatcher(cfg)
	assert.Equal(t, []string{"tbk", "webpay", "onepay", "redcompra", "conversion"}, m.GroupNames())
	assert.Contains(t, m.Classify("transbank webpay plus").Groups, "webpay")
	assert.True(t, m.IsImportant("Link de pago Webpay"))
	assert.Len(t, cfg.Subdomains, 4)

	_, err = Preset("nope")
	assert.True(t, apperr.IsConfiguration(err))
}

func TestHostnameAndPatterns(t *testing.T) {
	assert.Equal(t, "ayuda.transbank.cl", Hostname("https://Ayuda.Transbank.cl/faq?x=1"))
	assert.Equal(t, "", Hostname(""))
	assert.Equal(t, "", Hostname("::not a url"))
	assert.Equal(t, []string{"publico.transbank.cl"},
		MatchPatterns("https://publico.transbank.cl/webpay", []string{"publico.transbank.cl", "tienda.transbank.cl"}))
}
