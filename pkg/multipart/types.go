package multipart

import (
	"io"

	"github.com/NARUBROWN/bridge/core"
)

type UploadedFile struct {
	FieldName   string
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

type UploadedFiles struct {
	Files []UploadedFile
}

// FromContext는 폼 콘텐츠 타입이 아닌 요청에서 빈 목록을 반환합니다.
func FromContext(ctx core.Context) UploadedFiles {
	req := ctx.Request()
	if !req.HasFormContentType() {
		return UploadedFiles{}
	}
	return FromForm(req.Form())
}

// FromForm은 업로드 파일 뷰를 요청 수명과 무관한 값으로 복사합니다.
// Open은 원본 파일을 다시 읽으므로 요청이 끝나기 전에 호출해야 합니다.
func FromForm(form core.Form) UploadedFiles {
	if form == nil {
		return UploadedFiles{}
	}
	all := form.Files().All()
	files := make([]UploadedFile, 0, len(all))
	for _, f := range all {
		files = append(files, UploadedFile{
			FieldName:   f.Name(),
			Filename:    f.FileName(),
			ContentType: f.ContentType(),
			Size:        f.Size(),
			Open:        f.Open,
		})
	}
	return UploadedFiles{Files: files}
}

// Field는 필드 이름이 일치하는 파일만 반환합니다.
func (u UploadedFiles) Field(name string) []UploadedFile {
	var out []UploadedFile
	for _, f := range u.Files {
		if f.FieldName == name {
			out = append(out, f)
		}
	}
	return out
}
