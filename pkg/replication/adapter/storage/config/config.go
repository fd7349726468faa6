// Package config holds the configuration shape shared by the object storage adapters.
package config

// StorageConfig is the decoded form of one named entry under `syncwave.adapter.storage`.
type StorageConfig struct {
	// Type selects the adapter implementation ("local", "gcs" or "s3").
	Type string `yaml:"type"`
	// BucketName is the default bucket used when a call passes an empty bucket.
	BucketName string `yaml:"bucket_name"`
	// CredentialsFile is the service account key file used by the gcs adapter.
	CredentialsFile string `yaml:"credentials_file"`
	// BaseDir is the root directory used by the local adapter.
	BaseDir string `yaml:"base_dir"`
	// Region is the AWS region used by the s3 adapter.
	Region string `yaml:"region"`
	// Endpoint overrides the service endpoint (S3-compatible stores, GCS emulators).
	Endpoint string `yaml:"endpoint"`
	// UsePathStyle forces path-style addressing on the s3 adapter.
	UsePathStyle bool `yaml:"use_path_style"`
}
