package sevco

// SearchKind distinguishes IP searches from hostname searches. It is
// always derived from the raw term, never supplied independently.
type SearchKind string

const (
	SearchIP       SearchKind = "ip"
	SearchHostname SearchKind = "hostname"
)

// SearchQuery is a classified selection string ready for the device
// search client.
type SearchQuery struct {
	Term string     `json:"term"`
	Kind SearchKind `json:"kind"`
}

// Rule is one node of the structured query tree the asset API accepts.
// Group nodes carry a combinator and child rules; leaf nodes carry the
// entity/field/operator/value tuple.
type Rule struct {
	Combinator string `json:"combinator,omitempty"`
	Rules      []Rule `json:"rules,omitempty"`
	EntityType string `json:"entity_type,omitempty"`
	Field      string `json:"field,omitempty"`
	Operator   string `json:"operator,omitempty"`
	Value      string `json:"value,omitempty"`
}

// assetQuery is the request body shared by the asset search endpoints.
type assetQuery struct {
	Query Rule `json:"query"`
	Limit int  `json:"limit"`
}

// deviceQuery builds the device search body. Hostname terms use the
// contains operator because hostnames commonly appear as substrings of a
// canonical FQDN; IPs must match exactly.
func deviceQuery(q SearchQuery, limit int) assetQuery {
	field, operator := "hostnames", "contains"
	if q.Kind == SearchIP {
		field, operator = "ips", "equals"
	}
	return assetQuery{
		Query: Rule{
			Combinator: "and",
			Rules: []Rule{
				{
					Combinator: "and",
					Rules: []Rule{
						{
							EntityType: "device",
							Field:      field,
							Operator:   operator,
							Value:      q.Term,
						},
					},
				},
			},
		},
		Limit: limit,
	}
}

// userQuery builds an exact-match single-user lookup body.
func userQuery(username string) assetQuery {
	return assetQuery{
		Query: Rule{
			Combinator: "and",
			Rules: []Rule{
				{
					Combinator: "and",
					Rules: []Rule{
						{
							EntityType: "user",
							Field:      "usernames",
							Operator:   "equals",
							Value:      username,
						},
					},
				},
			},
		},
		Limit: 1,
	}
}

// vulnQuery builds an exact-match single-vulnerability lookup body.
func vulnQuery(id string) assetQuery {
	return assetQuery{
		Query: Rule{
			Combinator: "and",
			Rules: []Rule{
				{
					EntityType: "exp_vuln",
					Field:      "id",
					Operator:   "equals",
					Value:      id,
				},
			},
		},
		Limit: 1,
	}
}
