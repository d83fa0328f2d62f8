package transform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/weaming/idt-go/cache"
	"github.com/weaming/idt-go/logx"
	"github.com/weaming/idt-go/matrix"
	"github.com/weaming/idt-go/solver"
)

// CameraIlluminantKey 相机与光源类型
type CameraIlluminantKey struct {
	Make       string
	Model      string
	Illuminant string
}

func (k CameraIlluminantKey) String() string {
	return k.Make + ", " + k.Model + ", " + k.Illuminant
}

// CameraWBKey 相机与白平衡系数
type CameraWBKey struct {
	Make  string
	Model string
	WB    [3]float64
}

func (k CameraWBKey) String() string {
	return k.Make + ", " + k.Model + ", " + formatTriple(k.WB)
}

func formatTriple(v [3]float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// IlluminantWB 由白平衡系数反查到的光源及其白平衡系数
type IlluminantWB struct {
	Illuminant string
	WB         [3]float64
}

// CacheSet 四个工作流各自的缓存，由调用方创建一次并在多次调用间共享
type CacheSet struct {
	WBFromIlluminant     *cache.Cache[CameraIlluminantKey, [3]float64]
	IlluminantFromWB     *cache.Cache[CameraWBKey, IlluminantWB]
	MatrixFromIlluminant *cache.Cache[CameraIlluminantKey, matrix.Matrix3x3]
	MatrixFromMetadata   *cache.Cache[solver.Metadata, matrix.Matrix3x3]
}

// NewCacheSet 创建默认容量的缓存集合
func NewCacheSet() *CacheSet {
	return &CacheSet{
		WBFromIlluminant:     cache.New[CameraIlluminantKey, [3]float64]("WB from illuminant"),
		IlluminantFromWB:     cache.New[CameraWBKey, IlluminantWB]("illuminant from WB"),
		MatrixFromIlluminant: cache.New[CameraIlluminantKey, matrix.Matrix3x3]("matrix from illuminant"),
		MatrixFromMetadata: cache.NewFunc[solver.Metadata, matrix.Matrix3x3]("matrix from DNG metadata",
			solver.Metadata.Equal, solver.Metadata.String),
	}
}

// SetCapacity 修改所有缓存的容量，n <= 0 时忽略
func (cs *CacheSet) SetCapacity(n int) {
	if n <= 0 {
		return
	}
	cs.WBFromIlluminant.Resize(n)
	cs.IlluminantFromWB.Resize(n)
	cs.MatrixFromIlluminant.Resize(n)
	cs.MatrixFromMetadata.Resize(n)
}

// Clear 清空所有缓存
func (cs *CacheSet) Clear() {
	cs.WBFromIlluminant.Clear()
	cs.IlluminantFromWB.Clear()
	cs.MatrixFromIlluminant.Clear()
	cs.MatrixFromMetadata.Clear()
}

// String 各缓存的条目数
func (cs *CacheSet) String() string {
	return fmt.Sprintf("CacheSet{%s: %d, %s: %d, %s: %d, %s: %d}",
		cs.WBFromIlluminant.Name, cs.WBFromIlluminant.Len(),
		cs.IlluminantFromWB.Name, cs.IlluminantFromWB.Len(),
		cs.MatrixFromIlluminant.Name, cs.MatrixFromIlluminant.Len(),
		cs.MatrixFromMetadata.Name, cs.MatrixFromMetadata.Len())
}

func configureCache[D, V any](c *cache.Cache[D, V], settings Settings, logger *logx.Logger) {
	c.Configure(settings.Verbosity, settings.DisableCache, logger)
}
