package resources

import "github.com/mhahn/stacker-blueprints/pkg/cfn"

type RecordSet struct {
	Comment         string `json:"Comment,omitempty"`
	HostedZoneId    any    `json:"HostedZoneId,omitempty"`
	HostedZoneName  any    `json:"HostedZoneName,omitempty"`
	Name            any    `json:"Name"`
	ResourceRecords []any  `json:"ResourceRecords,omitempty"`
	TTL             string `json:"TTL,omitempty"`
	Type            string `json:"Type"`
}

func (RecordSet) AWSCloudFormationType() string { return "AWS::Route53::RecordSet" }

// ELBCNAME points subdomain.domain at the DNS name of a load balancer in the domain's hosted zone.
func ELBCNAME(comment string, subdomain, domain any, loadBalancer string) *RecordSet {
	return &RecordSet{
		Comment:         comment,
		HostedZoneName:  cfn.Join("", domain, "."),
		Name:            cfn.Join(".", subdomain, domain),
		Type:            "CNAME",
		TTL:             "120",
		ResourceRecords: []any{cfn.GetAtt(loadBalancer, "DNSName")},
	}
}
