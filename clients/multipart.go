package clients

import (
	"bytes"
	"io"
	"mime/multipart"

	"github.com/pkg/errors"
)

type formFile struct {
	field    string
	filename string
	content  io.Reader
}

type formField struct {
	name  string
	value string
}

// MultipartForm collects fields and files in insertion order and encodes them
// as multipart/form-data once, when the request is sent.
type MultipartForm struct {
	fields []formField
	files  []formFile
}

func NewMultipartForm() *MultipartForm {
	return &MultipartForm{}
}

func (f *MultipartForm) AddField(name string, value string) *MultipartForm {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

func (f *MultipartForm) AddFile(field string, filename string, content io.Reader) *MultipartForm {
	f.files = append(f.files, formFile{field: field, filename: filename, content: content})
	return f
}

func (f *MultipartForm) encode() (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for _, field := range f.fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", errors.Wrapf(err, "fail to write form field %s", field.name)
		}
	}
	for _, file := range f.files {
		part, err := w.CreateFormFile(file.field, file.filename)
		if err != nil {
			return nil, "", errors.Wrapf(err, "fail to create form file %s", file.field)
		}
		if _, err := io.Copy(part, file.content); err != nil {
			return nil, "", errors.Wrapf(err, "fail to copy form file %s", file.filename)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
