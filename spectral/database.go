package spectral

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/weaming/idt-go/logx"
)

// 数据库子目录
const (
	CameraDir     = "camera"
	IlluminantDir = "illuminant"
	TrainingDir   = "training"
	ObserverDir   = "cmf"
)

// 常用数据文件的相对路径
const (
	TrainingFile = "training/training_spectral.json"
	ObserverFile = "cmf/cmf_1931.json"
)

var ErrNotFound = errors.New("spectral: not found")

// Database 按顺序搜索的一组数据库根目录
type Database struct {
	Dirs   []string
	Logger *logx.Logger
}

// NewDatabase 创建数据库，logger 为 nil 时静默
func NewDatabase(dirs []string, logger *logx.Logger) *Database {
	if logger == nil {
		logger = logx.Discard()
	}
	return &Database{Dirs: dirs, Logger: logger}
}

func (db *Database) warn(format string, args ...any) {
	if db.Logger.Verbosity() > 0 {
		db.Logger.Warnf(format, args...)
	}
}

// Files 列出各根目录下 subdir 中的 .json 文件，按根目录顺序、文件名排序
func (db *Database) Files(subdir string) []string {
	var files []string
	for _, root := range db.Dirs {
		dir := filepath.Join(root, subdir)

		info, err := os.Stat(dir)
		if err != nil {
			db.warn("WARNING: Directory '%s' does not exist.", dir)
			continue
		}
		if !info.IsDir() {
			db.warn("WARNING: Database location '%s' is not a directory.", dir)
			continue
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			db.warn("WARNING: Directory '%s' does not exist.", dir)
			continue
		}

		var names []string
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
				continue
			}
			names = append(names, filepath.Join(dir, e.Name()))
		}
		sort.Strings(names)
		files = append(files, names...)
	}
	return files
}

// Resolve 绝对路径直接检查，相对路径在各根目录下查找第一个存在的文件
func (db *Database) Resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return path, nil
	}

	for _, root := range db.Dirs {
		p := filepath.Join(root, path)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, path)
}

// LoadFile 查找并加载数据文件
func (db *Database) LoadFile(path string) (*Data, error) {
	p, err := db.Resolve(path)
	if err != nil {
		return nil, err
	}
	return Load(p)
}

// FindCamera 按厂商与型号 (不区分大小写) 查找 3 通道相机灵敏度数据
// 无法解析或通道数不对的文件被跳过
func (db *Database) FindCamera(manufacturer, model string) (*Data, error) {
	for _, f := range db.Files(CameraDir) {
		d, err := Load(f)
		if err != nil {
			db.Logger.Debugf("skip %s: %v", f, err)
			continue
		}
		if !strings.EqualFold(d.Header.Manufacturer, manufacturer) ||
			!strings.EqualFold(d.Header.Model, model) {
			continue
		}
		if err := d.Expect(3); err != nil {
			db.Logger.Debugf("skip %s: %v", f, err)
			continue
		}
		return d, nil
	}
	return nil, fmt.Errorf("%w: camera %s %s", ErrNotFound, manufacturer, model)
}

// Illuminants 加载所有单通道光源数据，跳过坏文件
func (db *Database) Illuminants() []*Data {
	var out []*Data
	for _, f := range db.Files(IlluminantDir) {
		d, err := Load(f)
		if err != nil {
			db.Logger.Debugf("skip %s: %v", f, err)
			continue
		}
		if err := d.Expect(1); err != nil {
			db.Logger.Debugf("skip %s: %v", f, err)
			continue
		}
		out = append(out, d)
	}
	return out
}

// FindIlluminant 按头信息 type 查找光源 (不区分大小写)
func (db *Database) FindIlluminant(kind string) (*Data, error) {
	for _, d := range db.Illuminants() {
		if strings.EqualFold(d.Header.Type, kind) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: illuminant %s", ErrNotFound, kind)
}
