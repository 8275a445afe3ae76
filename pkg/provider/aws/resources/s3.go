package resources

import "github.com/mhahn/stacker-blueprints/pkg/cfn"

type Bucket struct {
	BucketName any `json:"BucketName,omitempty"`
}

func (Bucket) AWSCloudFormationType() string { return "AWS::S3::Bucket" }

// BucketArn is the ARN of a bucket given its name, or of the objects in it when path is "/*".
func BucketArn(bucket any, path string) cfn.Fn {
	if path == "" {
		return cfn.Join("", "arn:aws:s3:::", bucket)
	}
	return cfn.Join("", "arn:aws:s3:::", bucket, path)
}
