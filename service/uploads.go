package service

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/Zephony/zephony-go/models"
	"github.com/Zephony/zephony-go/util"
)

var ErrEmptyFilename = errors.New("filename is empty after sanitising")

// Uploader stores files under Folder
type Uploader struct {
	Folder string
}

func NewUploader(folder string) *Uploader {
	return &Uploader{Folder: folder}
}

// SaveUpload stores an uploaded file as <unix-microseconds>.<ext> so that
// uploads with the same name never replace each other
func (u *Uploader) SaveUpload(fh *multipart.FileHeader) (*models.UploadedFile, error) {
	secured := util.SecureFilename(fh.Filename)
	if secured == "" {
		return nil, ErrEmptyFilename
	}
	ext := util.FileExtension(secured)
	name := fmt.Sprintf("%d", time.Now().UnixMicro())
	if ext != "" {
		name += "." + ext
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	path, err := u.write(name, src)
	if err != nil {
		return nil, err
	}
	return &models.UploadedFile{OriginalName: fh.Filename, Name: name, Type: ext, Path: path}, nil
}

// SaveBase64 decodes standard base64, whitespace and line breaks allowed,
// and stores the result under the sanitised filename
func (u *Uploader) SaveBase64(value, filename string) (*models.UploadedFile, error) {
	name := util.SecureFilename(filename)
	if name == "" {
		return nil, ErrEmptyFilename
	}

	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, value)
	data, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 data: %w", err)
	}

	path, err := u.write(name, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &models.UploadedFile{OriginalName: filename, Name: name, Type: util.FileExtension(name), Path: path}, nil
}

func (u *Uploader) write(name string, r io.Reader) (string, error) {
	if err := os.MkdirAll(u.Folder, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload folder: %w", err)
	}
	path := filepath.Join(u.Folder, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
