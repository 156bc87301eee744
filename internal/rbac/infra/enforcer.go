package infra

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Roles are fixed per deployment, so the model and policies are compiled in
// rather than loaded per company from the database.
const modelText = `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// DefaultPolicies lists role, resource, action triples.
var DefaultPolicies = [][]string{
	{"hr", "*", "*"},

	{"manager", "cycle", "read"},
	{"manager", "evaluation", "read"},
	{"manager", "evaluation", "write"},
	{"manager", "evaluation_item", "read"},
	{"manager", "evaluation_item", "create"},
	{"manager", "evaluation_item", "update"},
	{"manager", "evaluation_item", "assign"},
	{"manager", "assessment", "read"},
	{"manager", "assessment", "write"},
	{"manager", "dashboard", "read"},
	{"manager", "user", "read"},
	{"manager", "company", "read"},
	{"manager", "llm", "use"},

	{"employee", "cycle", "read"},
	{"employee", "evaluation", "read"},
	{"employee", "evaluation_item", "read"},
	{"employee", "dashboard", "read"},
	{"employee", "company", "read"},
}

func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	if _, err := e.AddPolicies(DefaultPolicies); err != nil {
		return nil, err
	}
	return e, nil
}
