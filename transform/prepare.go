package transform

import (
	"fmt"

	"github.com/weaming/idt-go/matrix"
	"github.com/weaming/idt-go/solver"
)

// SolvedTransform 一次转换所需的全部系数
// CAT 为 nil 表示无需色适应
type SolvedTransform struct {
	Illuminant string
	WB         [3]float64
	IDT        matrix.Matrix3x3
	CAT        *matrix.Matrix3x3
}

// PrepareSpectral 由光谱数据准备转换
// illuminant 为空时先由 wb 反查光源
func PrepareSpectral(cs *CacheSet, settings Settings, manufacturer, model, illuminant string, wb []float64) (SolvedTransform, error) {
	if illuminant == "" {
		if len(wb) != 3 && len(wb) != 4 {
			return SolvedTransform{}, fmt.Errorf("white balance multipliers need 3 or 4 values, got %d", len(wb))
		}
		found, err := IlluminantFromMultipliers(cs, settings, manufacturer, model, [3]float64(wb[:3]))
		if err != nil {
			return SolvedTransform{}, err
		}
		illuminant = found
	}

	out := SolvedTransform{Illuminant: illuminant}

	var err error
	if out.WB, err = MultipliersFromIlluminant(cs, settings, manufacturer, model, illuminant); err != nil {
		return SolvedTransform{}, err
	}
	if out.IDT, err = MatrixFromIlluminant(cs, settings, manufacturer, model, illuminant); err != nil {
		return SolvedTransform{}, err
	}

	s := settings.newSolver()
	if err := configure(s, manufacturer, model, illuminant, true, false); err != nil {
		return SolvedTransform{}, err
	}
	cat, ok := s.CalculateCATMatrix()
	if !ok {
		return SolvedTransform{}, &Error{Kind: ErrIDTFailed, Msg: "Failed to calculate CAT matrix from illuminant"}
	}
	out.CAT = &cat
	return out, nil
}

// PrepareMetadata 由 DNG 元数据准备转换，白平衡取中性色的倒数 (G = 1)
func PrepareMetadata(cs *CacheSet, settings Settings, md solver.Metadata) SolvedTransform {
	out := SolvedTransform{
		WB:  [3]float64{1, 1, 1},
		IDT: MatrixFromMetadata(cs, settings, md),
	}

	if len(md.NeutralRGB) >= 3 {
		n := matrix.VectorFromSlice(md.NeutralRGB)
		if n.Min() > 0 {
			out.WB = [3]float64(n.Invert().Scale(n[1]))
		}
	}

	cat := solver.NewMetadataSolver(md, solver.WithLogger(settings.logger())).CalculateCATMatrix()
	out.CAT = &cat
	return out
}
