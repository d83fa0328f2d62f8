package solver

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/weaming/idt-go/colorspace"
	"github.com/weaming/idt-go/fit"
	"github.com/weaming/idt-go/logx"
	"github.com/weaming/idt-go/matrix"
	"github.com/weaming/idt-go/spectral"
)

// State 光谱求解器的配置进度
type State int

const (
	Unconfigured State = iota
	CameraFound
	IlluminantResolved
	WBCalculated
	IDTCalculated
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "Unconfigured"
	case CameraFound:
		return "CameraFound"
	case IlluminantResolved:
		return "IlluminantResolved"
	case WBCalculated:
		return "WBCalculated"
	case IDTCalculated:
		return "IDTCalculated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Camera 相机及其 R, G, B 光谱灵敏度
type Camera struct {
	Make  string
	Model string
	Data  *spectral.Data
}

// Illuminant 光源类型及其功率谱
type Illuminant struct {
	Type string
	Data *spectral.Data
}

// Power 功率谱，未设置时返回零值
func (i Illuminant) Power() spectral.Spectrum {
	if i.Data == nil || i.Data.NumChannels() == 0 {
		return spectral.Spectrum{}
	}
	return i.Data.Channels[0]
}

// SpectralSolver 由相机灵敏度、光源、训练色块与标准观察者拟合 IDT 矩阵
// 一个实例只配置一次，不可并发使用
type SpectralSolver struct {
	Database   *spectral.Database
	Camera     Camera
	Illuminant Illuminant
	Training   *spectral.Data
	Observer   *spectral.Data

	verbosity int
	logger    *logx.Logger
	minimizer fit.Minimizer

	state  State
	wb     matrix.Vector3
	idt    matrix.Matrix3x3
	result fit.Result
}

// NewSpectralSolver 在 searchDirs 中查找数据
func NewSpectralSolver(searchDirs []string, opts ...Option) *SpectralSolver {
	o := applyOptions(opts)
	return &SpectralSolver{
		Database:  spectral.NewDatabase(searchDirs, o.logger),
		verbosity: o.verbosity,
		logger:    o.logger,
		minimizer: o.minimizer,
		idt:       matrix.Identity3x3(),
	}
}

// State 当前进度
func (s *SpectralSolver) State() State {
	return s.state
}

func (s *SpectralSolver) advance(to State) {
	if to > s.state {
		s.state = to
	}
}

// FindCamera 按厂商与型号查找相机光谱数据
func (s *SpectralSolver) FindCamera(manufacturer, model string) bool {
	d, err := s.Database.FindCamera(manufacturer, model)
	if err != nil {
		s.logger.Debugf("%v", err)
		return false
	}

	s.Camera = Camera{Make: manufacturer, Model: model, Data: d}
	s.advance(CameraFound)
	return true
}

// LoadSpectralData 按绝对路径或数据库相对路径加载数据文件
func (s *SpectralSolver) LoadSpectralData(path string) (*spectral.Data, bool) {
	d, err := s.Database.LoadFile(path)
	if err != nil {
		s.logger.Debugf("%v", err)
		return nil, false
	}
	return d, true
}

// LoadTrainingData 加载训练色块反射率
func (s *SpectralSolver) LoadTrainingData(path string) bool {
	d, ok := s.LoadSpectralData(path)
	if !ok || d.NumChannels() == 0 {
		return false
	}
	s.Training = d
	return true
}

// LoadObserver 加载 X, Y, Z 色匹配函数
func (s *SpectralSolver) LoadObserver(path string) bool {
	d, ok := s.LoadSpectralData(path)
	if !ok {
		return false
	}
	if err := d.Expect(3); err != nil {
		s.logger.Errorf("observer '%s': %v", path, err)
		return false
	}
	s.Observer = d
	return true
}

// parseNumber 解析纯数字标签
func parseNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// FindIlluminant 解析光源类型：d<N> 日光，<N>k 黑体，其余在数据库中按类型查找
func (s *SpectralSolver) FindIlluminant(kind string) bool {
	lower := strings.ToLower(kind)

	if n, ok := parseNumber(strings.TrimPrefix(lower, "d")); ok && strings.HasPrefix(lower, "d") {
		temp, err := spectral.DaylightCCT(n)
		if err != nil {
			s.logger.Error(err.Error())
			return false
		}
		s.setIlluminant(spectral.DaylightData(lower, temp))
		return true
	}

	if n, ok := parseNumber(strings.TrimSuffix(lower, "k")); ok && strings.HasSuffix(lower, "k") {
		if err := spectral.ValidateBlackbody(n); err != nil {
			s.logger.Error(err.Error())
			return false
		}
		s.setIlluminant(spectral.BlackbodyData(lower, float64(n)))
		return true
	}

	d, err := s.Database.FindIlluminant(lower)
	if err != nil {
		s.logger.Errorf("Failed to find illuminant type = '%s'.", lower)
		return false
	}
	s.setIlluminant(d)
	return true
}

func (s *SpectralSolver) setIlluminant(d *spectral.Data) {
	s.Illuminant = Illuminant{Type: d.Header.Type, Data: d}
	s.advance(IlluminantResolved)
}

// whiteBalance 光源按绿色通道响应归一化后，各通道的白平衡系数 (G = 1)
func whiteBalance(camera *spectral.Data, power spectral.Spectrum) (matrix.Vector3, spectral.Spectrum) {
	scaled := power.Scale(1.0 / spectral.Dot(camera.Channels[1], power))

	var response matrix.Vector3
	for i := 0; i < 3; i++ {
		response[i] = spectral.Dot(camera.Channels[i], scaled)
	}
	return response.Invert().Scale(response[1]), scaled
}

func vectorFinite(v matrix.Vector3) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// normalizeByMin 最小分量为正且不为 1 时除以最小分量
func normalizeByMin(v matrix.Vector3) matrix.Vector3 {
	if m := v.Min(); m > 0 && m != 1 {
		return v.Scale(1.0 / m)
	}
	return v
}

type candidate struct {
	label string
	data  *spectral.Data
}

func (s *SpectralSolver) candidates() []candidate {
	var out []candidate
	for temp := spectral.DaylightMin; temp <= spectral.DaylightMax; temp += 500 {
		label := fmt.Sprintf("d%d", temp/100)
		cctValue, _ := spectral.DaylightCCT(temp / 100)
		out = append(out, candidate{label, spectral.DaylightData(label, cctValue)})
	}
	for temp := spectral.BlackbodyMin; temp < spectral.BlackbodyMax; temp += 500 {
		label := fmt.Sprintf("%dk", temp)
		out = append(out, candidate{label, spectral.BlackbodyData(label, float64(temp))})
	}
	for _, d := range s.Database.Illuminants() {
		out = append(out, candidate{strings.ToLower(d.Header.Type), d})
	}
	return out
}

// FindIlluminantFromWB 选取白平衡系数与给定值最接近的光源
// 4 通道输入只使用前三个值
func (s *SpectralSolver) FindIlluminantFromWB(wb []float64) bool {
	if s.Camera.Data == nil {
		s.logger.Error("camera needs to be initialised prior to calling SpectralSolver::find_illuminant()")
		return false
	}
	if len(wb) != 3 && len(wb) != 4 {
		s.logger.Errorf("white balance multipliers need 3 or 4 values, got %d", len(wb))
		return false
	}

	raw := matrix.VectorFromSlice(wb)
	if !vectorFinite(raw) || raw.Min() <= 0 {
		s.logger.Errorf("white balance multipliers must be positive and finite, got %v", wb)
		return false
	}
	target := normalizeByMin(raw)

	best := -1.0
	var chosen candidate
	var chosenWB matrix.Vector3

	for _, c := range s.candidates() {
		cwb, _ := whiteBalance(s.Camera.Data, c.data.Channels[0])
		if !vectorFinite(cwb) {
			continue
		}

		n := normalizeByMin(cwb)
		dist := 0.0
		for i := range n {
			d := n[i]/target[i] - 1.0
			dist += d * d
		}
		if math.IsNaN(dist) || math.IsInf(dist, 0) {
			continue
		}
		if best < 0 || dist < best {
			best = dist
			chosen = c
			chosenWB = cwb
		}
	}

	if best < 0 {
		return false
	}

	if s.verbosity > 0 {
		s.logger.Infof("The illuminant calculated to be the best match to the camera metadata is '%s'.", chosen.label)
	}

	s.Illuminant = Illuminant{Type: chosen.label, Data: chosen.data}
	s.wb = chosenWB
	s.advance(WBCalculated)
	return true
}

// CalculateWB 由光源与相机灵敏度计算白平衡系数
func (s *SpectralSolver) CalculateWB() bool {
	if s.Illuminant.Data == nil {
		s.logger.Error("illuminant needs to be initialised prior to calling SpectralSolver::calculate_WB()")
		return false
	}
	if s.Camera.Data == nil {
		s.logger.Error("camera needs to be initialised prior to calling SpectralSolver::calculate_WB()")
		return false
	}

	wb, _ := whiteBalance(s.Camera.Data, s.Illuminant.Power())
	if !vectorFinite(wb) {
		s.logger.Error("white balance multipliers are not finite")
		return false
	}

	s.wb = wb
	s.advance(WBCalculated)
	return true
}

// illuminantWhite 观察者积分的光源白点 (Y = 1) 及 Y 归一化因子
func illuminantWhite(observer *spectral.Data, power spectral.Spectrum) (matrix.Vector3, float64) {
	var w matrix.Vector3
	for j := 0; j < 3; j++ {
		w[j] = spectral.Dot(observer.Channels[j], power)
	}
	return w.Scale(1.0 / w[1]), w[1]
}

// CalculateCATMatrix 光源白点 → ACES 白点的 CAT02 适应矩阵
func (s *SpectralSolver) CalculateCATMatrix() (matrix.Matrix3x3, bool) {
	if s.Illuminant.Data == nil {
		s.logger.Error("illuminant needs to be initialised prior to calling SpectralSolver::calculate_CAT_matrix()")
		return matrix.Identity3x3(), false
	}
	if s.Observer == nil {
		s.logger.Error("observer needs to be initialised prior to calling SpectralSolver::calculate_CAT_matrix()")
		return matrix.Identity3x3(), false
	}

	white, _ := illuminantWhite(s.Observer, s.Illuminant.Power())
	if !vectorFinite(white) {
		return matrix.Identity3x3(), false
	}
	return colorspace.CalculateCAT(white, colorspace.ACESWhiteXYZ), true
}

// paramsToMatrix 6 个参数展开为行和为 1 的 3x3 矩阵
func paramsToMatrix(b []float64) matrix.Matrix3x3 {
	return matrix.Matrix3x3{
		b[0], b[1], 1 - b[0] - b[1],
		b[2], b[3], 1 - b[2] - b[3],
		b[4], b[5], 1 - b[4] - b[5],
	}
}

// trainingSet 训练色块的白平衡后相机 RGB 与目标 Lab
func (s *SpectralSolver) trainingSet() ([]matrix.Vector3, []matrix.Vector3) {
	_, scaled := whiteBalance(s.Camera.Data, s.Illuminant.Power())
	white, y := illuminantWhite(s.Observer, scaled)
	cat := colorspace.CalculateCAT(white, colorspace.ACESWhiteXYZ)

	n := s.Training.NumChannels()
	rgb := make([]matrix.Vector3, n)
	lab := make([]matrix.Vector3, n)

	for p, patch := range s.Training.Channels {
		lit := scaled.Mul(patch)

		var camera, xyz matrix.Vector3
		for i := 0; i < 3; i++ {
			camera[i] = spectral.Dot(s.Camera.Data.Channels[i], lit)
			xyz[i] = spectral.Dot(s.Observer.Channels[i], lit) / y
		}

		rgb[p] = camera.ComponentMul(s.wb)
		lab[p] = colorspace.XYZToLab(cat.Apply(xyz), colorspace.ACESWhiteXYZ)
	}
	return rgb, lab
}

func (s *SpectralSolver) newMinimizer() fit.Minimizer {
	if s.minimizer != nil {
		return s.minimizer
	}
	lm := fit.NewLevenbergMarquardt()
	if s.verbosity >= 3 {
		lm.Progress = func(it fit.Iteration) {
			s.logger.Printf("%s\n", it)
		}
	}
	return lm
}

// CalculateIDTMatrix 拟合相机 RGB → ACES 矩阵，使训练色块的 Lab 差最小
func (s *SpectralSolver) CalculateIDTMatrix() bool {
	const where = "prior to calling SpectralSolver::calculate_IDT_matrix()"
	switch {
	case s.Camera.Data == nil:
		s.logger.Errorf("camera needs to be initialised %s", where)
		return false
	case s.Illuminant.Data == nil:
		s.logger.Errorf("illuminant needs to be initialised %s", where)
		return false
	case s.state < WBCalculated:
		s.logger.Errorf("white balance needs to be calculated %s", where)
		return false
	case s.Training == nil || s.Training.NumChannels() == 0:
		s.logger.Errorf("training data needs to be initialised %s", where)
		return false
	case s.Observer == nil || s.Observer.NumChannels() != 3:
		s.logger.Errorf("observer needs to be initialised %s", where)
		return false
	}

	rgb, target := s.trainingSet()

	obj := fit.Objective{
		M: 3 * len(rgb),
		F: func(dst, x []float64) {
			m := colorspace.ACESToXYZ.Multiply(paramsToMatrix(x))
			for p := range rgb {
				lab := colorspace.XYZToLab(m.Apply(rgb[p]), colorspace.ACESWhiteXYZ)
				for i := 0; i < 3; i++ {
					dst[3*p+i] = target[p][i] - lab[i]
				}
			}
		},
	}

	res := s.newMinimizer().Minimize(obj, []float64{1, 0, 0, 1, 0, 0})
	s.result = res

	if s.verbosity >= 2 {
		s.logger.Printf("%s\n", res.Summary())
	}

	if !res.Converged {
		s.logger.Error("IDT matrix fit did not converge")
		return false
	}

	s.idt = paramsToMatrix(res.X)
	s.advance(IDTCalculated)
	return true
}

// WBMultipliers 白平衡系数，需先成功调用 CalculateWB 或 FindIlluminantFromWB
func (s *SpectralSolver) WBMultipliers() [3]float64 {
	return [3]float64(s.wb)
}

// IDTMatrix IDT 矩阵，需先成功调用 CalculateIDTMatrix
func (s *SpectralSolver) IDTMatrix() matrix.Matrix3x3 {
	return s.idt
}

// FitResult 最近一次拟合的结果
func (s *SpectralSolver) FitResult() fit.Result {
	return s.result
}
