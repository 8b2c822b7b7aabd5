package metrics

import (
	"math"

	"github.com/AngelCh415/GSC_GO/internal/models"
)

// Compare computes the period-over-period change of a scalar. DeltaPct is nil
// when ini is 0 so previously absent values never show infinite growth.
// Shares are left nil; see CompareShare.
func Compare(ini, fin float64) models.Variation {
	delta := fin - ini
	v := models.Variation{
		Ini:   round2(ini),
		Fin:   round2(fin),
		Delta: round2(delta),
	}
	if ini != 0 {
		// the base is taken as a magnitude so the sign follows delta when a
		// derived metric starts negative
		v.DeltaPct = ptr(round2(delta / math.Abs(ini) * 100))
	}
	return v
}

// CompareShare is Compare plus each value's share of its period total.
func CompareShare(ini, fin, totalIni, totalFin float64) models.Variation {
	v := Compare(ini, fin)
	shareIni := share(ini, totalIni)
	shareFin := share(fin, totalFin)
	if shareIni != nil && shareFin != nil {
		v.ShareDeltaPct = ptr(round2(*shareFin - *shareIni))
	}
	v.ShareIniPct = round2p(shareIni)
	v.ShareFinPct = round2p(shareFin)
	return v
}

// share is unrounded so the share delta is computed before rounding.
func share(value, total float64) *float64 {
	s := safeDiv(value, total)
	if s == nil {
		return nil
	}
	return ptr(*s * 100)
}

// CompareAggregates applies the scalar rule to every metric field. Shares of
// clicks and impressions are taken against the given period totals; CTR and
// position carry no share. CTR is compared in percent.
func CompareAggregates(ini, fin, totalIni, totalFin models.Aggregate) models.AggregateVariation {
	av := models.AggregateVariation{
		Label:       fin.Label,
		Ini:         ini,
		Fin:         fin,
		Clicks:      CompareShare(float64(ini.Clicks), float64(fin.Clicks), float64(totalIni.Clicks), float64(totalFin.Clicks)),
		Impressions: CompareShare(float64(ini.Impressions), float64(fin.Impressions), float64(totalIni.Impressions), float64(totalFin.Impressions)),
		CTR:         Compare(ini.CTR*100, fin.CTR*100),
	}
	if av.Label == "" {
		av.Label = ini.Label
	}
	if ini.Position != nil && fin.Position != nil {
		pv := Compare(*ini.Position, *fin.Position)
		av.Position = &pv
	}
	return av
}
