// Package transform 组合求解器与缓存，提供相机 RGB → ACES 的四个工作流
package transform

import (
	"errors"
	"fmt"

	"github.com/weaming/idt-go/logx"
	"github.com/weaming/idt-go/matrix"
	"github.com/weaming/idt-go/solver"
	"github.com/weaming/idt-go/spectral"
)

const databaseHint = "Please check the database search path in RAWTOACES_DATABASE_PATH"

// 各类失败，可用 errors.Is 判断
var (
	ErrCameraNotFound     = errors.New("camera not found")
	ErrTrainingNotFound   = errors.New("training data not found")
	ErrObserverNotFound   = errors.New("observer not found")
	ErrIlluminantNotFound = errors.New("illuminant not found")

	ErrIlluminantFromWB = errors.New("Failed to find illuminant from white balance multipliers")
	ErrWBFailed         = errors.New("Failed to calculate white balance multipliers")
	ErrIDTFailed        = errors.New("Failed to calculate IDT matrix from illuminant")
)

// Error 面向用户的错误信息，Unwrap 返回失败类别
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Settings 单次调用的运行参数
type Settings struct {
	DatabaseDirs []string
	Verbosity    int
	DisableCache bool
	Logger       *logx.Logger
}

func (s Settings) logger() *logx.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logx.Default(s.Verbosity)
}

func (s Settings) newSolver() *solver.SpectralSolver {
	return solver.NewSpectralSolver(s.DatabaseDirs,
		solver.WithVerbosity(s.Verbosity),
		solver.WithLogger(s.logger()))
}

// configure 按需加载相机、训练数据、观察者与光源
func configure(s *solver.SpectralSolver, manufacturer, model, illuminant string, observer, training bool) error {
	if !s.FindCamera(manufacturer, model) {
		return newError(ErrCameraNotFound,
			"Failed to find spectral data for camera make: '%s', model: '%s'. %s", manufacturer, model, databaseHint)
	}

	if training && !s.LoadTrainingData(spectral.TrainingFile) {
		return newError(ErrTrainingNotFound,
			"Failed to find training data '%s'. %s", spectral.TrainingFile, databaseHint)
	}

	if observer && !s.LoadObserver(spectral.ObserverFile) {
		return newError(ErrObserverNotFound,
			"Failed to find observer '%s'. %s", spectral.ObserverFile, databaseHint)
	}

	if illuminant != "" && !s.FindIlluminant(illuminant) {
		return newError(ErrIlluminantNotFound,
			"Failed to find illuminant type '%s'. %s", illuminant, databaseHint)
	}
	return nil
}

// failure 本次计算的错误优先，缓存中重放的失败使用通用信息
func failure(fresh error, generic error) error {
	if fresh != nil {
		return fresh
	}
	return &Error{Kind: generic, Msg: generic.Error()}
}

// IlluminantFromMultipliers 由白平衡系数反查最匹配的光源
func IlluminantFromMultipliers(cs *CacheSet, settings Settings, manufacturer, model string, wb [3]float64) (string, error) {
	logger := settings.logger()
	configureCache(cs.IlluminantFromWB, settings, logger)

	var solveErr error
	ok, data := cs.IlluminantFromWB.Fetch(CameraWBKey{manufacturer, model, wb}, func(v *IlluminantWB) bool {
		s := settings.newSolver()
		if solveErr = configure(s, manufacturer, model, "", false, false); solveErr != nil {
			return false
		}
		if !s.FindIlluminantFromWB(wb[:]) {
			solveErr = newError(ErrIlluminantFromWB, "%s", ErrIlluminantFromWB.Error())
			return false
		}
		v.Illuminant = s.Illuminant.Type
		v.WB = s.WBMultipliers()
		return true
	})
	if !ok {
		return "", failure(solveErr, ErrIlluminantFromWB)
	}

	if settings.Verbosity > 0 {
		logger.Infof("Found illuminant: '%s'.", data.Illuminant)
	}
	return data.Illuminant, nil
}

// MultipliersFromIlluminant 计算给定光源下的白平衡系数
func MultipliersFromIlluminant(cs *CacheSet, settings Settings, manufacturer, model, illuminant string) ([3]float64, error) {
	logger := settings.logger()
	configureCache(cs.WBFromIlluminant, settings, logger)

	var solveErr error
	ok, wb := cs.WBFromIlluminant.Fetch(CameraIlluminantKey{manufacturer, model, illuminant}, func(v *[3]float64) bool {
		s := settings.newSolver()
		if solveErr = configure(s, manufacturer, model, illuminant, false, false); solveErr != nil {
			return false
		}
		if !s.CalculateWB() {
			solveErr = newError(ErrWBFailed, "%s", ErrWBFailed.Error())
			return false
		}
		*v = s.WBMultipliers()
		return true
	})
	if !ok {
		return [3]float64{}, failure(solveErr, ErrWBFailed)
	}

	if settings.Verbosity > 0 {
		logger.Infof("White balance coefficients:")
		logger.Infof("%g %g %g", wb[0], wb[1], wb[2])
	}
	return wb, nil
}

// MatrixFromIlluminant 拟合给定光源下的 IDT 矩阵
func MatrixFromIlluminant(cs *CacheSet, settings Settings, manufacturer, model, illuminant string) (matrix.Matrix3x3, error) {
	logger := settings.logger()
	configureCache(cs.MatrixFromIlluminant, settings, logger)

	var solveErr error
	ok, idt := cs.MatrixFromIlluminant.Fetch(CameraIlluminantKey{manufacturer, model, illuminant}, func(v *matrix.Matrix3x3) bool {
		s := settings.newSolver()
		if solveErr = configure(s, manufacturer, model, illuminant, true, true); solveErr != nil {
			return false
		}
		if !s.CalculateWB() {
			solveErr = newError(ErrWBFailed, "%s", ErrWBFailed.Error())
			return false
		}
		if !s.CalculateIDTMatrix() {
			solveErr = newError(ErrIDTFailed, "%s", ErrIDTFailed.Error())
			return false
		}
		*v = s.IDTMatrix()
		return true
	})
	if !ok {
		return matrix.Matrix3x3{}, failure(solveErr, ErrIDTFailed)
	}

	logMatrix(settings, logger, idt)
	return idt, nil
}

// MatrixFromMetadata 由 DNG 标定元数据计算 IDT 矩阵，不会失败
func MatrixFromMetadata(cs *CacheSet, settings Settings, md solver.Metadata) matrix.Matrix3x3 {
	logger := settings.logger()
	configureCache(cs.MatrixFromMetadata, settings, logger)

	_, idt := cs.MatrixFromMetadata.Fetch(md.Clone(), func(v *matrix.Matrix3x3) bool {
		*v = solver.NewMetadataSolver(md, solver.WithLogger(logger)).CalculateIDTMatrix()
		return true
	})

	logMatrix(settings, logger, idt)
	return idt
}

func logMatrix(settings Settings, logger *logx.Logger, m matrix.Matrix3x3) {
	if settings.Verbosity <= 0 {
		return
	}
	logger.Infof("Input Device Transform (IDT) matrix:")
	for _, row := range m.Rows() {
		logger.Infof("  %g %g %g", row[0], row[1], row[2])
	}
}
