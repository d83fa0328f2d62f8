// Package solver 由光谱数据或 DNG 元数据求解白平衡系数、IDT 与 CAT 矩阵
package solver

import (
	"github.com/weaming/idt-go/fit"
	"github.com/weaming/idt-go/logx"
)

type options struct {
	verbosity int
	logger    *logx.Logger
	minimizer fit.Minimizer
}

// Option 求解器选项
type Option func(*options)

// WithVerbosity 详细级别：1 输出诊断，2 输出拟合摘要，3 输出每次迭代
func WithVerbosity(v int) Option {
	return func(o *options) { o.verbosity = v }
}

// WithLogger 指定日志输出
func WithLogger(l *logx.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMinimizer 替换默认的 Levenberg-Marquardt 求解器
func WithMinimizer(m fit.Minimizer) Option {
	return func(o *options) { o.minimizer = m }
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logx.Default(o.verbosity)
	}
	return o
}
