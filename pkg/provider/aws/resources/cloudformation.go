package resources

const InitMetadataKey = "AWS::CloudFormation::Init"

type (
	// Init is the cfn-init metadata attached to a launch configuration, keyed by config set name.
	Init map[string]InitConfig

	InitConfig struct {
		Files InitFiles `json:"files,omitempty"`
	}

	// InitFiles maps absolute paths on the instance to their content.
	InitFiles map[string]InitFile

	InitFile struct {
		Content any    `json:"content"`
		Group   string `json:"group,omitempty"`
		Mode    string `json:"mode,omitempty"`
		Owner   string `json:"owner,omitempty"`
	}
)

// NewInit returns the single "config" set of cfn-init with files.
func NewInit(files InitFiles) Init {
	return Init{"config": InitConfig{Files: files}}
}

// RootFile is a file owned by root with the given mode, eg. "000644".
func RootFile(content any, mode string) InitFile {
	return InitFile{Content: content, Mode: mode, Owner: "root", Group: "root"}
}
