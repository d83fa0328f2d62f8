// Package spectraltest 在临时目录中生成光谱数据库，供测试使用
package spectraltest

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/weaming/idt-go/spectral"
)

// Fixture 临时光谱数据库
type Fixture struct {
	tb  testing.TB
	Dir string
	n   int
}

// New 在 tb.TempDir() 下创建空数据库
func New(tb testing.TB) *Fixture {
	tb.Helper()
	return &Fixture{tb: tb, Dir: tb.TempDir()}
}

// Dirs 作为搜索路径使用
func (f *Fixture) Dirs() []string {
	return []string{f.Dir}
}

// WriteDataset 写入一个 380..780nm, 5nm 步长的数据文件，返回其路径
// name 为空时自动命名
func (f *Fixture) WriteDataset(subdir, name string, header map[string]any, index []string, sample func(w float64) []float64) string {
	f.tb.Helper()

	dir := filepath.Join(f.Dir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		f.tb.Fatalf("mkdir %s: %v", dir, err)
	}
	if name == "" {
		f.n++
		name = fmt.Sprintf("test_%s_%d.json", subdir, f.n)
	}

	data := map[string][]float64{}
	shape := spectral.DefaultShape
	for i := 0; i < shape.Len(); i++ {
		w := shape.Wavelength(i)
		data[strconv.Itoa(int(w))] = sample(w)
	}

	doc := map[string]any{
		"header": header,
		"spectral_data": map[string]any{
			"units": "relative",
			"index": map[string]any{"main": index},
			"data":  map[string]any{"main": data},
		},
	}

	b, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		f.tb.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		f.tb.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WithCamera 写入高斯灵敏度的相机数据
func (f *Fixture) WithCamera(manufacturer, model string) *Fixture {
	return f.WithCameraFunc(manufacturer, model, CameraSensitivity)
}

// WithCameraFunc 写入自定义灵敏度的相机数据
func (f *Fixture) WithCameraFunc(manufacturer, model string, sample func(w float64) []float64) *Fixture {
	f.WriteDataset(spectral.CameraDir, "",
		map[string]any{"manufacturer": manufacturer, "model": model},
		[]string{"R", "G", "B"}, sample)
	return f
}

// WithBrokenCamera 写入 4 通道的相机数据
func (f *Fixture) WithBrokenCamera(manufacturer, model string) *Fixture {
	f.WriteDataset(spectral.CameraDir, "",
		map[string]any{"manufacturer": manufacturer, "model": model},
		[]string{"R", "G", "B", "D"},
		func(w float64) []float64 { return append(CameraSensitivity(w), 1) })
	return f
}

// WithIlluminant 写入单通道光源
func (f *Fixture) WithIlluminant(kind string, power func(w float64) float64) *Fixture {
	f.WriteDataset(spectral.IlluminantDir, "",
		map[string]any{"type": kind},
		[]string{"power"},
		func(w float64) []float64 { return []float64{power(w)} })
	return f
}

// WithBrokenIlluminant 写入 2 通道的光源
func (f *Fixture) WithBrokenIlluminant(kind string) *Fixture {
	f.WriteDataset(spectral.IlluminantDir, "",
		map[string]any{"type": kind},
		[]string{"power", "power2"},
		func(w float64) []float64 { return []float64{1, 1} })
	return f
}

// WithTraining 写入训练色块
func (f *Fixture) WithTraining() *Fixture {
	index := make([]string, len(TrainingReflectances(500)))
	for i := range index {
		index[i] = fmt.Sprintf("patch%d", i+1)
	}
	f.WriteDataset(spectral.TrainingDir, filepath.Base(spectral.TrainingFile), map[string]any{}, index, TrainingReflectances)
	return f
}

// WithObserver 写入近似的 CIE 1931 色匹配函数
func (f *Fixture) WithObserver() *Fixture {
	f.WriteDataset(spectral.ObserverDir, filepath.Base(spectral.ObserverFile), map[string]any{}, []string{"X", "Y", "Z"}, ObserverCMF)
	return f
}

// Standard 相机、训练色块与观察者
func (f *Fixture) Standard(manufacturer, model string) *Fixture {
	return f.WithCamera(manufacturer, model).WithTraining().WithObserver()
}

func gauss(w, mu, sigma float64) float64 {
	d := (w - mu) / sigma
	return math.Exp(-0.5 * d * d)
}

// piecewiseGauss 左右宽度不同的高斯
func piecewiseGauss(w, mu, left, right float64) float64 {
	if w < mu {
		return gauss(w, mu, left)
	}
	return gauss(w, mu, right)
}

// CameraSensitivity 合成的 R, G, B 灵敏度
func CameraSensitivity(w float64) []float64 {
	return []float64{
		gauss(w, 600, 35),
		gauss(w, 540, 40),
		gauss(w, 455, 30),
	}
}

// ObserverCMF CIE 1931 色匹配函数的多高斯近似 (Wyman, Sloan, Shirley 2013)
func ObserverCMF(w float64) []float64 {
	x := 1.056*piecewiseGauss(w, 599.8, 37.9, 31.0) +
		0.362*piecewiseGauss(w, 442.0, 16.0, 26.7) -
		0.065*piecewiseGauss(w, 501.1, 20.4, 26.2)
	y := 0.821*piecewiseGauss(w, 568.8, 46.9, 40.5) +
		0.286*piecewiseGauss(w, 530.9, 16.3, 31.1)
	z := 1.217*piecewiseGauss(w, 437.0, 11.8, 36.0) +
		0.681*piecewiseGauss(w, 459.0, 26.0, 13.8)
	return []float64{x, y, z}
}

// TrainingReflectances 24 个合成色块：带通、阶跃与中性灰
func TrainingReflectances(w float64) []float64 {
	out := make([]float64, 0, 24)
	for k := 0; k < 18; k++ {
		mu := 400 + float64(k)*300/17
		sigma := 25 + float64(k%4)*15
		out = append(out, 0.1+0.7*gauss(w, mu, sigma))
	}
	for _, mu := range []float64{450, 500, 600, 650} {
		out = append(out, 0.1+0.8/(1+math.Exp(-(w-mu)/20)))
	}
	out = append(out, 0.2, 0.8)
	return out
}

// Flat 等能光源
func Flat(float64) float64 {
	return 1
}
