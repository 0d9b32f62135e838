package core

import (
	"io"
	"net/http"
	"time"
)

// Header는 레거시 헤더 컬렉션 위의 지연 뷰입니다. 키는 정규화(canonical)됩니다.
type Header interface {
	Get(key string) string
	Values(key string) []string
	Has(key string) bool
	Set(key, value string)
	Add(key, value string)
	Del(key string)
	Keys() []string
	Len() int
	// Clone은 현재 내용을 복사한 http.Header를 반환합니다.
	Clone() http.Header
}

// Values는 쿼리 문자열과 폼 필드처럼 이름-값 목록으로 된 컬렉션입니다.
type Values interface {
	Get(key string) string
	Values(key string) []string
	Has(key string) bool
	Set(key, value string)
	Add(key, value string)
	Del(key string)
	Keys() []string
	Len() int
	Encode() string
}

type RequestCookies interface {
	Get(name string) (string, bool)
	Has(name string) bool
	Keys() []string
	Len() int
}

// CookieOptions는 응답 쿠키에 적용할 속성입니다.
type CookieOptions struct {
	Domain   string
	Path     string
	Expires  time.Time
	Secure   bool
	HttpOnly bool
	SameSite http.SameSite
}

type ResponseCookies interface {
	Append(name, value string, opts ...CookieOptions)
	Delete(name string, opts ...CookieOptions)
}

// Form은 폼 필드와 업로드 파일을 함께 노출합니다.
type Form interface {
	Values
	Files() FormFiles
}

type FormFiles interface {
	Len() int
	At(index int) FormFile
	// File은 이름이 대소문자 구분 없이 일치하는 첫 파일을 반환합니다.
	File(name string) (FormFile, bool)
	Files(name string) []FormFile
	All() []FormFile
}

type FormFile interface {
	Name() string
	FileName() string
	ContentType() string
	Size() int64
	Open() (io.ReadCloser, error)
}
