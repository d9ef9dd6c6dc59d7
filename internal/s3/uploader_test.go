package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"equipment-requests-api-server/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type stubPutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (p *stubPutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	p.input = params
	b, _ := io.ReadAll(params.Body)
	p.body = string(b)
	return &s3.PutObjectOutput{}, p.err
}

func TestUploadFile(t *testing.T) {
	cases := []struct {
		name       string
		cloudFront string
		wantURL    string
	}{
		{"bucket url", "", "https://reports.s3.eu-central-1.amazonaws.com/reports/a.csv"},
		{"cloudfront url", "cdn.example.com", "https://cdn.example.com/reports/a.csv"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			putter := &stubPutter{}
			u := &Uploader{Client: putter, Bucket: "reports", Region: "eu-central-1", CloudFrontDomain: tc.cloudFront}

			url, err := u.UploadFile(context.Background(), strings.NewReader("id,reason\n"), "reports/a.csv", "text/csv")
			if err != nil {
				t.Fatalf("UploadFile: %v", err)
			}
			if url != tc.wantURL {
				t.Fatalf("url = %s, want %s", url, tc.wantURL)
			}
			if aws.ToString(putter.input.Bucket) != "reports" || aws.ToString(putter.input.Key) != "reports/a.csv" {
				t.Fatalf("unexpected input %+v", putter.input)
			}
			if aws.ToString(putter.input.ContentType) != "text/csv" || putter.body != "id,reason\n" {
				t.Fatalf("content type %q body %q", aws.ToString(putter.input.ContentType), putter.body)
			}
		})
	}
}

func TestUploadFileError(t *testing.T) {
	u := &Uploader{Client: &stubPutter{err: errors.New("access denied")}, Bucket: "reports"}
	if _, err := u.UploadFile(context.Background(), strings.NewReader("x"), "k", "text/plain"); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewUploaderRequiresBucket(t *testing.T) {
	if _, err := NewUploader(context.Background(), config.S3Config{Region: "eu-central-1"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}
