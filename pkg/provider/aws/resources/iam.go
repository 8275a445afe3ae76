package resources

import "github.com/mhahn/stacker-blueprints/pkg/cfn"

const (
	PolicyVersion = "2012-10-17"

	AllowEffect = "Allow"
	DenyEffect  = "Deny"
)

type (
	PolicyDocument struct {
		Version   string           `json:"Version"`
		Statement []StatementEntry `json:"Statement"`
	}

	StatementEntry struct {
		Sid       string     `json:"Sid,omitempty"`
		Effect    string     `json:"Effect"`
		Principal *Principal `json:"Principal,omitempty"`
		Action    []string   `json:"Action"`
		Resource  any        `json:"Resource,omitempty"`
		Condition *Condition `json:"Condition,omitempty"`
	}

	Principal struct {
		AWS       any `json:"AWS,omitempty"`
		Federated any `json:"Federated,omitempty"`
		Service   any `json:"Service,omitempty"`
	}

	Condition struct {
		StringEquals map[string]any `json:"StringEquals,omitempty"`
		StringLike   map[string]any `json:"StringLike,omitempty"`
		ArnEquals    map[string]any `json:"ArnEquals,omitempty"`
		Null         map[string]any `json:"Null,omitempty"`
	}

	// Role is AWS::IAM::Role.
	Role struct {
		AssumeRolePolicyDocument *PolicyDocument `json:"AssumeRolePolicyDocument"`
		ManagedPolicyArns        []any           `json:"ManagedPolicyArns,omitempty"`
		Path                     any             `json:"Path,omitempty"`
		Policies                 []Policy        `json:"Policies,omitempty"`
		RoleName                 any             `json:"RoleName,omitempty"`
	}

	// Policy is an inline policy embedded in a role, user or group.
	Policy struct {
		PolicyName     any             `json:"PolicyName"`
		PolicyDocument *PolicyDocument `json:"PolicyDocument"`
	}

	// PolicyType is the standalone AWS::IAM::Policy attached to existing principals.
	PolicyType struct {
		PolicyName     any             `json:"PolicyName"`
		PolicyDocument *PolicyDocument `json:"PolicyDocument"`
		Groups         any             `json:"Groups,omitempty"`
		Roles          any             `json:"Roles,omitempty"`
		Users          any             `json:"Users,omitempty"`
	}

	InstanceProfile struct {
		Path  any   `json:"Path,omitempty"`
		Roles []any `json:"Roles"`
	}

	User struct {
		Groups            []any         `json:"Groups,omitempty" mapstructure:"Groups"`
		LoginProfile      *LoginProfile `json:"LoginProfile,omitempty" mapstructure:"LoginProfile"`
		ManagedPolicyArns []any         `json:"ManagedPolicyArns,omitempty" mapstructure:"ManagedPolicyArns"`
		Path              any           `json:"Path,omitempty" mapstructure:"Path"`
		Policies          []Policy      `json:"Policies,omitempty" mapstructure:"Policies"`
		UserName          any           `json:"UserName,omitempty" mapstructure:"UserName"`
	}

	LoginProfile struct {
		Password              any  `json:"Password" mapstructure:"Password"`
		PasswordResetRequired bool `json:"PasswordResetRequired,omitempty" mapstructure:"PasswordResetRequired"`
	}
)

func (Role) AWSCloudFormationType() string            { return "AWS::IAM::Role" }
func (PolicyType) AWSCloudFormationType() string      { return "AWS::IAM::Policy" }
func (InstanceProfile) AWSCloudFormationType() string { return "AWS::IAM::InstanceProfile" }
func (User) AWSCloudFormationType() string            { return "AWS::IAM::User" }

// NewPolicyDocument wraps statements in a document with the current policy language version.
func NewPolicyDocument(statements ...StatementEntry) *PolicyDocument {
	return &PolicyDocument{
		Version:   PolicyVersion,
		Statement: statements,
	}
}

// Allow is a shorthand for an Allow statement over actions on resources.
func Allow(resource any, actions ...string) StatementEntry {
	return StatementEntry{
		Effect:   AllowEffect,
		Action:   actions,
		Resource: resource,
	}
}

// ServiceAssumeRolePolicy returns a trust policy letting the named AWS services assume the role.
func ServiceAssumeRolePolicy(services ...string) *PolicyDocument {
	var service any = services
	if len(services) == 1 {
		service = services[0]
	}
	return NewPolicyDocument(StatementEntry{
		Effect:    AllowEffect,
		Principal: &Principal{Service: service},
		Action:    []string{"sts:AssumeRole"},
	})
}

var (
	EC2AssumeRolePolicy = ServiceAssumeRolePolicy("ec2.amazonaws.com")
	ECSAssumeRolePolicy = ServiceAssumeRolePolicy("ecs.amazonaws.com")
)

// RoleRefs returns the Roles list of an instance profile from logical ids.
func RoleRefs(ids ...string) []any {
	refs := make([]any, len(ids))
	for i, id := range ids {
		refs[i] = cfn.Ref(id)
	}
	return refs
}
