package collections

import (
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/NARUBROWN/bridge/core"
	"github.com/NARUBROWN/bridge/pkg/legacy"
)

type formFile struct {
	posted legacy.PostedFile
}

func (f *formFile) Name() string { return f.posted.FieldName }

func (f *formFile) FileName() string {
	if f.posted.Header == nil {
		return ""
	}
	return f.posted.Header.Filename
}

func (f *formFile) ContentType() string {
	if f.posted.Header == nil {
		return ""
	}
	return f.posted.Header.Header.Get("Content-Type")
}

func (f *formFile) Size() int64 {
	if f.posted.Header == nil {
		return 0
	}
	return f.posted.Header.Size
}

func (f *formFile) Open() (io.ReadCloser, error) {
	if f.posted.Header == nil {
		return nil, os.ErrNotExist
	}
	return f.posted.Header.Open()
}

// FormFilesView는 업로드 파일 목록을 처음 접근할 때 읽어옵니다.
// 파일 항목은 요청 사이에 재사용됩니다.
type FormFilesView struct {
	load    func() []legacy.PostedFile
	loaded  bool
	entries []*formFile
	count   int
}

func (v *FormFilesView) Bind(load func() []legacy.PostedFile) {
	v.load = load
	v.loaded = false
	v.count = 0
}

func (v *FormFilesView) Reset() {
	for i := 0; i < v.count; i++ {
		v.entries[i].posted = legacy.PostedFile{}
	}
	v.load = nil
	v.loaded = false
	v.count = 0
}

func (v *FormFilesView) ensure() {
	if v.loaded {
		return
	}
	v.loaded = true
	if v.load == nil {
		return
	}

	posted := v.load()
	for len(v.entries) < len(posted) {
		v.entries = append(v.entries, &formFile{})
	}
	for i, p := range posted {
		v.entries[i].posted = p
	}
	v.count = len(posted)
}

func (v *FormFilesView) Len() int {
	v.ensure()
	return v.count
}

func (v *FormFilesView) At(index int) core.FormFile {
	v.ensure()
	if index < 0 || index >= v.count {
		return nil
	}
	return v.entries[index]
}

func (v *FormFilesView) File(name string) (core.FormFile, bool) {
	v.ensure()
	for i := 0; i < v.count; i++ {
		if strings.EqualFold(v.entries[i].posted.FieldName, name) {
			return v.entries[i], true
		}
	}
	return nil, false
}

func (v *FormFilesView) Files(name string) []core.FormFile {
	v.ensure()
	var out []core.FormFile
	for i := 0; i < v.count; i++ {
		if strings.EqualFold(v.entries[i].posted.FieldName, name) {
			out = append(out, v.entries[i])
		}
	}
	return out
}

func (v *FormFilesView) All() []core.FormFile {
	v.ensure()
	out := make([]core.FormFile, v.count)
	for i := 0; i < v.count; i++ {
		out[i] = v.entries[i]
	}
	return out
}

// FormView는 폼 필드와 업로드 파일을 묶은 뷰입니다. 필드는 처음 접근할 때 읽어옵니다.
type FormView struct {
	load   func() url.Values
	loaded bool
	fields ValuesView
	files  FormFilesView
}

func (v *FormView) Bind(fields func() url.Values, files func() []legacy.PostedFile) {
	v.load = fields
	v.loaded = false
	v.fields.Reset()
	v.files.Bind(files)
}

func (v *FormView) Reset() {
	v.load = nil
	v.loaded = false
	v.fields.Reset()
	v.files.Reset()
}

func (v *FormView) ensure() *ValuesView {
	if !v.loaded {
		v.loaded = true
		if v.load != nil {
			v.fields.Bind(v.load())
		}
	}
	return &v.fields
}

func (v *FormView) Get(key string) string      { return v.ensure().Get(key) }
func (v *FormView) Values(key string) []string { return v.ensure().Values(key) }
func (v *FormView) Has(key string) bool        { return v.ensure().Has(key) }
func (v *FormView) Set(key, value string)      { v.ensure().Set(key, value) }
func (v *FormView) Add(key, value string)      { v.ensure().Add(key, value) }
func (v *FormView) Del(key string)             { v.ensure().Del(key) }
func (v *FormView) Keys() []string             { return v.ensure().Keys() }
func (v *FormView) Len() int                   { return v.ensure().Len() }
func (v *FormView) Encode() string             { return v.ensure().Encode() }
func (v *FormView) Files() core.FormFiles      { return &v.files }
