// Package config 命令行配置：TOML 文件、环境变量与数据库搜索路径
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"
	"github.com/weaming/idt-go/cache"
	"github.com/weaming/idt-go/solver"
)

// 数据库路径环境变量
const (
	EnvDataPath       = "RAWTOACES_DATA_PATH"
	EnvLegacyDataPath = "AMPAS_DATA_PATH"
)

// Config 运行配置，命令行参数覆盖文件中的值
type Config struct {
	DataDir       string    `toml:"data_dir"`
	Verbosity     int       `toml:"verbosity"`
	DisableCache  bool      `toml:"disable_cache"`
	CacheCapacity int       `toml:"cache_capacity"`
	Make          string    `toml:"make"`
	Model         string    `toml:"model"`
	Illuminant    string    `toml:"illuminant"`
	WB            []float64 `toml:"wb"`
	Metadata      string    `toml:"metadata"`
}

// Default 默认配置
func Default() Config {
	return Config{CacheCapacity: cache.DefaultCapacity}
}

// Load 读取 TOML 配置文件，未出现的字段保持默认值
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("无法打开配置文件: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate 检查字段取值
func (c Config) Validate() error {
	if c.Verbosity < 0 {
		return errors.New("verbosity 不能为负数")
	}
	if c.CacheCapacity < 0 {
		return errors.New("cache_capacity 不能为负数")
	}
	if len(c.WB) != 0 && len(c.WB) != 3 && len(c.WB) != 4 {
		return fmt.Errorf("wb 需要 3 或 4 个值, 实际 %d 个", len(c.WB))
	}
	return nil
}

// DatabasePaths 数据库搜索路径
// 优先级: override > RAWTOACES_DATA_PATH > AMPAS_DATA_PATH > 系统默认
func DatabasePaths(override string) []string {
	for _, v := range []string{override, os.Getenv(EnvDataPath), os.Getenv(EnvLegacyDataPath)} {
		if v != "" {
			return splitPaths(v)
		}
	}

	if runtime.GOOS == "windows" {
		return []string{"."}
	}
	return []string{
		"/usr/local/share/rawtoaces/data",
		"/usr/local/include/rawtoaces/data",
	}
}

func splitPaths(list string) []string {
	var out []string
	for _, p := range filepath.SplitList(list) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadMetadata 读取 TOML 格式的 DNG 标定元数据
func LoadMetadata(path string) (solver.Metadata, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return solver.Metadata{}, fmt.Errorf("无法读取元数据文件: %w", err)
	}

	var md solver.Metadata
	if err := toml.Unmarshal(b, &md); err != nil {
		return solver.Metadata{}, fmt.Errorf("解析元数据文件 %s 失败: %w", path, err)
	}

	for i, c := range md.Calibration {
		if n := len(c.XYZToRGBMatrix); n != 0 && n != 9 {
			return md, fmt.Errorf("calibration[%d].xyz_to_rgb_matrix 需要 9 个值, 实际 %d 个", i, n)
		}
		if n := len(c.CameraCalibrationMatrix); n != 0 && n != 9 {
			return md, fmt.Errorf("calibration[%d].camera_calibration_matrix 需要 9 个值, 实际 %d 个", i, n)
		}
	}
	if n := len(md.NeutralRGB); n != 0 && n != 3 {
		return md, fmt.Errorf("neutral_rgb 需要 3 个值, 实际 %d 个", n)
	}
	return md, nil
}
