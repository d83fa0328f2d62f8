package spectral

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrNoChannels   = errors.New("spectral: no channels in index")
	ErrNoSamples    = errors.New("spectral: no spectral samples")
	ErrChannelCount = errors.New("spectral: unexpected channel count")
)

// Header 数据集头信息
type Header struct {
	Manufacturer    string
	Model           string
	Type            string
	Illuminant      string
	SchemaVersion   string
	Description     string
	DocumentCreator string
	CatalogNumber   string
	Extra           map[string]string
}

var headerKeys = map[string]func(h *Header) *string{
	"manufacturer":     func(h *Header) *string { return &h.Manufacturer },
	"model":            func(h *Header) *string { return &h.Model },
	"type":             func(h *Header) *string { return &h.Type },
	"illuminant":       func(h *Header) *string { return &h.Illuminant },
	"schema_version":   func(h *Header) *string { return &h.SchemaVersion },
	"description":      func(h *Header) *string { return &h.Description },
	"document_creator": func(h *Header) *string { return &h.DocumentCreator },
	"catalog_number":   func(h *Header) *string { return &h.CatalogNumber },
}

// UnmarshalJSON 头字段可能是数字或其他类型，统一转为字符串
func (h *Header) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	for k, v := range raw {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		if field, known := headerKeys[k]; known {
			*field(h) = s
			continue
		}
		if h.Extra == nil {
			h.Extra = make(map[string]string)
		}
		h.Extra[k] = s
	}
	return nil
}

// Data 多通道光谱数据集，加载后只读
type Data struct {
	Header   Header
	Units    string
	Index    []string
	Channels []Spectrum
}

type fileLayout struct {
	Header       Header `json:"header"`
	SpectralData struct {
		Units string `json:"units"`
		Index struct {
			Main []string `json:"main"`
		} `json:"index"`
		Data struct {
			Main map[string][]float64 `json:"main"`
		} `json:"data"`
	} `json:"spectral_data"`
}

// Load 读取 JSON 光谱文件，重采样到 DefaultShape
func Load(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("spectral: open %s: %w", path, err)
	}
	defer f.Close()

	d, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse 解析 JSON 光谱数据
func Parse(r io.Reader) (*Data, error) {
	var layout fileLayout
	if err := json.NewDecoder(r).Decode(&layout); err != nil {
		return nil, fmt.Errorf("spectral: decode: %w", err)
	}

	sd := layout.SpectralData
	if len(sd.Index.Main) == 0 {
		return nil, ErrNoChannels
	}
	if len(sd.Data.Main) == 0 {
		return nil, ErrNoSamples
	}

	n := len(sd.Index.Main)
	wavelengths := make([]float64, 0, len(sd.Data.Main))
	columns := make([][]float64, n)

	keys := make([]string, 0, len(sd.Data.Main))
	for k := range sd.Data.Main {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		row := sd.Data.Main[k]
		w, err := strconv.ParseFloat(strings.TrimSpace(k), 64)
		if err != nil {
			return nil, fmt.Errorf("spectral: bad wavelength %q: %w", k, err)
		}
		if len(row) != n {
			return nil, fmt.Errorf("%w: wavelength %s has %d values, index has %d",
				ErrChannelCount, k, len(row), n)
		}
		wavelengths = append(wavelengths, w)
		for c := range row {
			columns[c] = append(columns[c], row[c])
		}
	}

	d := &Data{
		Header:   layout.Header,
		Units:    sd.Units,
		Index:    append([]string(nil), sd.Index.Main...),
		Channels: make([]Spectrum, n),
	}
	for c := range columns {
		d.Channels[c] = Interpolate(wavelengths, columns[c], DefaultShape)
	}
	return d, nil
}

// NumChannels 通道数
func (d *Data) NumChannels() int {
	return len(d.Channels)
}

// Channel 按名称查找通道
func (d *Data) Channel(name string) (Spectrum, bool) {
	for i, n := range d.Index {
		if strings.EqualFold(n, name) {
			return d.Channels[i], true
		}
	}
	return Spectrum{}, false
}

// Expect 校验通道数
func (d *Data) Expect(channels int) error {
	if len(d.Channels) != channels {
		return fmt.Errorf("%w: expected %d, got %d", ErrChannelCount, channels, len(d.Channels))
	}
	return nil
}

// IsFinite 所有通道的采样都是有限值
func (d *Data) IsFinite() bool {
	for _, c := range d.Channels {
		if !c.IsFinite() {
			return false
		}
	}
	return true
}

// FromSpectrum 由单通道光谱构建光源数据集
func FromSpectrum(label string, s Spectrum) *Data {
	return &Data{
		Header:   Header{Type: label},
		Units:    "relative",
		Index:    []string{"power"},
		Channels: []Spectrum{s},
	}
}
