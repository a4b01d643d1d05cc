package toolchain

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// FetchMingwFromBucket downloads and unpacks a `<toolchainName>.tar.gz`
// cross-toolchain archive from an S3 bucket mirror when the host has no
// local candidate for it. This supplements host-only detection: build
// farms commonly keep prebuilt mingw toolchains in an artifact bucket
// rather than requiring every worker image to carry a full cross-compiler
// install.
//
// bucketURI is `s3://bucket/prefix`; destDir is where the toolchain's bin/
// directory is extracted. On success it returns destDir joined with "bin",
// which the caller should prepend to PATH before re-running detection.
func FetchMingwFromBucket(bucketURI, toolchainName, destDir string) (string, error) {
	bucket, prefix, err := parseS3URI(bucketURI)
	if err != nil {
		return "", err
	}

	sess, err := session.NewSession(&aws.Config{})
	if err != nil {
		return "", fmt.Errorf("toolchain fetch: %w", err)
	}
	downloader := s3manager.NewDownloader(sess)

	key := strings.TrimSuffix(prefix, "/") + "/" + toolchainName + ".tar.gz"
	archivePath := filepath.Join(destDir, toolchainName+".tar.gz")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(archivePath)
	if err != nil {
		return "", err
	}
	defer os.Remove(archivePath)
	defer f.Close()

	if _, err := downloader.Download(f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return "", fmt.Errorf("toolchain fetch: download %s/%s: %w", bucket, key, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	if err := extractTarGz(archivePath, destDir); err != nil {
		return "", fmt.Errorf("toolchain fetch: extract: %w", err)
	}
	return filepath.Join(destDir, "bin"), nil
}

func parseS3URI(uri string) (bucket, prefix string, err error) {
	const schema = "s3://"
	if !strings.HasPrefix(uri, schema) {
		return "", "", fmt.Errorf("toolchain fetch: bucket URI must start with %s: %q", schema, uri)
	}
	rest := uri[len(schema):]
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("toolchain fetch: missing bucket name in %q", uri)
	}
	return bucket, prefix, nil
}

func extractTarGz(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		target := filepath.Join(destDir, filepath.Clean(hdr.Name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("toolchain fetch: archive entry escapes destination: %s", hdr.Name)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		}
	}
}
