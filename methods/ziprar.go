package methods

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archiver/v3"
)

// Unzip 解压到与压缩包同名的目录，返回该目录
func Unzip(src string) (string, error) {
	ext := filepath.Ext(src)
	switch strings.ToLower(ext) {
	case ".zip":
		return UnzipZip(src)
	case ".rar":
		return UnzipRar(src)
	default:
		return "", errors.New("Unsupported file format")
	}
}

func unpackDir(src string) string {
	dirpath, _ := filepath.Split(src)
	fileName := filepath.Base(src)
	fileExt := filepath.Ext(src)
	return filepath.Join(dirpath, fileName[0:len(fileName)-len(fileExt)])
}

func UnzipZip(src string) (string, error) {
	unpath := unpackDir(src)
	if err := os.MkdirAll(unpath, os.ModePerm); err != nil {
		return "", err
	}

	reader, err := zip.OpenReader(src)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	for _, file := range reader.File {
		if err := extractFile(file, unpath); err != nil {
			return "", err
		}
	}
	return unpath, nil
}

func extractFile(zf *zip.File, dest string) error {
	name := zf.Name
	// 国内工具打包的zip文件名常为GBK
	if zf.NonUTF8 {
		name = gbkToUtf8(name)
	}
	fpath := filepath.Join(dest, name)

	// 防止解压到目标目录之外
	if !strings.HasPrefix(fpath, filepath.Clean(dest)+string(os.PathSeparator)) {
		return fmt.Errorf("%s: illegal file path", fpath)
	}

	if zf.FileInfo().IsDir() {
		return os.MkdirAll(fpath, os.ModePerm)
	}
	if err := os.MkdirAll(filepath.Dir(fpath), os.ModePerm); err != nil {
		return err
	}
	outFile, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, zf.Mode())
	if err != nil {
		return err
	}
	defer outFile.Close()
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(outFile, rc)
	return err
}

func UnzipRar(src string) (string, error) {
	unpath := unpackDir(src)
	if err := os.MkdirAll(unpath, os.ModePerm); err != nil {
		return "", err
	}
	if err := archiver.Unarchive(src, unpath); err != nil {
		return "", err
	}
	return unpath, nil
}
