package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/weaming/idt-go/config"
	"github.com/weaming/idt-go/logx"
	"github.com/weaming/idt-go/matrix"
	"github.com/weaming/idt-go/transform"
)

const version = "0.1.0"

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags 先读取 -config 指定的文件，再用显式给出的参数覆盖
func parseFlags(fs *flag.FlagSet, args []string) (config.Config, error) {
	var (
		cfgPath string
		flags   = config.Default()
		wb      string
		v, vv   bool
	)

	fs.StringVar(&cfgPath, "config", "", "TOML 配置文件路径")
	fs.StringVar(&flags.Make, "make", "", "相机厂商")
	fs.StringVar(&flags.Model, "model", "", "相机型号")
	fs.StringVar(&flags.Illuminant, "illuminant", "", "光源: d<N> 日光, <N>k 黑体, 或数据库中的光源类型")
	fs.StringVar(&wb, "wb", "", "白平衡系数 r,g,b (未指定光源时用于反查光源)")
	fs.StringVar(&flags.Metadata, "meta", "", "DNG 标定元数据 (TOML)，指定后使用元数据求解")
	fs.StringVar(&flags.DataDir, "data-dir", "", "光谱数据库目录，多个目录用系统路径分隔符连接")
	fs.BoolVar(&v, "v", false, "详细输出")
	fs.BoolVar(&vv, "vv", false, "更详细的输出 (包含拟合摘要)")
	fs.BoolVar(&flags.DisableCache, "no-cache", false, "禁用缓存")
	fs.IntVar(&flags.CacheCapacity, "cache-size", flags.CacheCapacity, "每个缓存的容量")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "idt-go version %s\n", version)
		fmt.Fprintf(out, "\n计算相机 RGB → ACES 的白平衡系数、IDT 与 CAT 矩阵\n\n")
		fmt.Fprintf(out, "用法: idt-go [选项]\n\n")
		fmt.Fprintf(out, "选项:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\n环境变量:\n")
		fmt.Fprintf(out, "  %s  光谱数据库搜索路径\n", config.EnvDataPath)
		fmt.Fprintf(out, "  %s      (已弃用) 同上\n", config.EnvLegacyDataPath)
		fmt.Fprintf(out, "\n示例:\n")
		fmt.Fprintf(out, "  idt-go -make Canon -model \"EOS R\" -illuminant d55\n")
		fmt.Fprintf(out, "  idt-go -make Canon -model \"EOS R\" -wb 2.1,1,1.5\n")
		fmt.Fprintf(out, "  idt-go -meta camera.toml\n")
	}

	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "make":
			cfg.Make = flags.Make
		case "model":
			cfg.Model = flags.Model
		case "illuminant":
			cfg.Illuminant = flags.Illuminant
		case "meta":
			cfg.Metadata = flags.Metadata
		case "data-dir":
			cfg.DataDir = flags.DataDir
		case "no-cache":
			cfg.DisableCache = flags.DisableCache
		case "cache-size":
			cfg.CacheCapacity = flags.CacheCapacity
		case "wb":
			cfg.WB, parseErr = parseWB(wb)
		}
	})
	if parseErr != nil {
		return config.Config{}, parseErr
	}

	switch {
	case vv:
		cfg.Verbosity = 2
	case v:
		cfg.Verbosity = max(cfg.Verbosity, 1)
	}

	return cfg, cfg.Validate()
}

// parseWB 解析逗号分隔的白平衡系数
func parseWB(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return nil, fmt.Errorf("-wb 需要 3 或 4 个逗号分隔的值: %q", s)
	}

	wb := make([]float64, len(parts))
	for i, p := range parts {
		x, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("-wb 第 %d 个值无效: %w", i+1, err)
		}
		wb[i] = x
	}
	return wb, nil
}

func run(cfg config.Config, w io.Writer) error {
	logger := logx.Default(cfg.Verbosity)

	cs := transform.NewCacheSet()
	cs.SetCapacity(cfg.CacheCapacity)

	settings := transform.Settings{
		DatabaseDirs: config.DatabasePaths(cfg.DataDir),
		Verbosity:    cfg.Verbosity,
		DisableCache: cfg.DisableCache,
		Logger:       logger,
	}

	var st transform.SolvedTransform

	if cfg.Metadata != "" {
		logger.Step("加载元数据", filepath.Base(cfg.Metadata))
		md, err := config.LoadMetadata(cfg.Metadata)
		if err != nil {
			return err
		}
		logger.Done("完成")

		logger.Step("求解", "DNG 元数据")
		st = transform.PrepareMetadata(cs, settings, md)
		logger.Done("完成")
	} else {
		if cfg.Make == "" || cfg.Model == "" {
			return errors.New("必须指定相机厂商与型号 (-make, -model) 或元数据文件 (-meta)")
		}
		if cfg.Illuminant == "" && len(cfg.WB) == 0 {
			return errors.New("必须指定光源 (-illuminant) 或白平衡系数 (-wb)")
		}

		hint := cfg.Illuminant
		if hint == "" {
			hint = fmt.Sprint(cfg.WB)
		}
		logger.Step("求解", hint)
		var err error
		st, err = transform.PrepareSpectral(cs, settings, cfg.Make, cfg.Model, cfg.Illuminant, cfg.WB)
		if err != nil {
			return err
		}
		logger.Done(st.Illuminant)
	}

	writeResult(w, st)
	if cfg.Verbosity > 0 {
		logger.Total()
	}
	return nil
}

func writeResult(w io.Writer, st transform.SolvedTransform) {
	if st.Illuminant != "" {
		fmt.Fprintf(w, "Illuminant: %s\n", st.Illuminant)
	}
	fmt.Fprintf(w, "White balance: %.6f %.6f %.6f\n", st.WB[0], st.WB[1], st.WB[2])
	writeMatrix(w, "IDT matrix", st.IDT)
	if st.CAT != nil {
		writeMatrix(w, "CAT matrix", *st.CAT)
	}
}

func writeMatrix(w io.Writer, title string, m matrix.Matrix3x3) {
	fmt.Fprintf(w, "%s:\n", title)
	for _, row := range m.Rows() {
		fmt.Fprintf(w, "  %10.6f %10.6f %10.6f\n", row[0], row[1], row[2])
	}
}
