package merchants

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hongminglow/smartcard/internal/config"
	"github.com/hongminglow/smartcard/internal/models"
)

// rawMerchant matches the exported catalog, where coordinates may be
// numbers or numeric strings.
type rawMerchant struct {
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Lat      flexFloat `json:"lat"`
	Lon      flexFloat `json:"lon"`
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// Parse decodes a JSON array of merchants, dropping unknown categories and
// unnamed entries.
func Parse(r io.Reader) (*Catalog, error) {
	var raw []rawMerchant
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode merchant catalog: %w", err)
	}
	merchants := make([]models.Merchant, 0, len(raw))
	for _, m := range raw {
		if m.Name == "" || !Categories[m.Category] {
			continue
		}
		merchants = append(merchants, models.Merchant{
			Name:     m.Name,
			Category: m.Category,
			Lat:      float64(m.Lat),
			Lon:      float64(m.Lon),
		})
	}
	return NewCatalog(merchants), nil
}

// LoadFile reads the catalog from a local JSON file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open merchant file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// NewMinIOClient connects to an S3-compatible endpoint.
func NewMinIOClient(cfg config.MinIO) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create MinIO client: %w", err)
	}
	return client, nil
}

// LoadObject streams the catalog from an object in bucket.
func LoadObject(ctx context.Context, client *minio.Client, bucket, key string) (*Catalog, error) {
	object, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get merchant object %s/%s: %w", bucket, key, err)
	}
	defer object.Close()

	catalog, err := Parse(object)
	if err != nil {
		return nil, err
	}
	log.Printf("loaded %d merchants from bucket %q key %q", catalog.Len(), bucket, key)
	return catalog, nil
}

// Load picks the object store when a bucket is configured, otherwise the
// local file.
func Load(ctx context.Context, cfg config.Config) (*Catalog, error) {
	if cfg.MerchantBucket == "" {
		return LoadFile(cfg.MerchantFile)
	}
	client, err := NewMinIOClient(cfg.MinIO)
	if err != nil {
		return nil, err
	}
	return LoadObject(ctx, client, cfg.MerchantBucket, cfg.MerchantObject)
}
