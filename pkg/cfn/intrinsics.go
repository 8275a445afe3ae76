package cfn

// Fn is an intrinsic function or pseudo parameter reference, encoded as a single key object.
type Fn map[string]any

const (
	AccountID        = "AWS::AccountId"
	NotificationARNs = "AWS::NotificationARNs"
	NoValueParam     = "AWS::NoValue"
	Partition        = "AWS::Partition"
	Region           = "AWS::Region"
	StackID          = "AWS::StackId"
	StackName        = "AWS::StackName"
	URLSuffix        = "AWS::URLSuffix"
)

var pseudoParameters = map[string]struct{}{
	AccountID:        {},
	NotificationARNs: {},
	NoValueParam:     {},
	Partition:        {},
	Region:           {},
	StackID:          {},
	StackName:        {},
	URLSuffix:        {},
}

func IsPseudoParameter(name string) bool {
	_, ok := pseudoParameters[name]
	return ok
}

func Ref(name string) Fn {
	return Fn{"Ref": name}
}

func GetAtt(resource, attribute string) Fn {
	return Fn{"Fn::GetAtt": []string{resource, attribute}}
}

// Join concatenates values with sep.
func Join(sep string, values ...any) Fn {
	if values == nil {
		values = []any{}
	}
	return Fn{"Fn::Join": []any{sep, values}}
}

// JoinList joins a value that is already a list, such as a Ref to a CommaDelimitedList parameter.
func JoinList(sep string, list any) Fn {
	return Fn{"Fn::Join": []any{sep, list}}
}

func If(condition string, whenTrue, whenFalse any) Fn {
	return Fn{"Fn::If": []any{condition, whenTrue, whenFalse}}
}

func Equals(a, b any) Fn {
	return Fn{"Fn::Equals": []any{a, b}}
}

func Not(condition any) Fn {
	return Fn{"Fn::Not": []any{condition}}
}

func Or(conditions ...any) Fn {
	return Fn{"Fn::Or": conditions}
}

func And(conditions ...any) Fn {
	return Fn{"Fn::And": conditions}
}

// Condition references a named condition from inside another condition.
func Condition(name string) Fn {
	return Fn{"Condition": name}
}

func Base64(v any) Fn {
	return Fn{"Fn::Base64": v}
}

func FindInMap(mapName string, topKey, secondKey any) Fn {
	return Fn{"Fn::FindInMap": []any{mapName, topKey, secondKey}}
}

func Sub(s string) Fn {
	return Fn{"Fn::Sub": s}
}

func SubWith(s string, vars map[string]any) Fn {
	if len(vars) == 0 {
		return Sub(s)
	}
	return Fn{"Fn::Sub": []any{s, vars}}
}

func Select(index int, list any) Fn {
	return Fn{"Fn::Select": []any{index, list}}
}

func GetAZs(region any) Fn {
	return Fn{"Fn::GetAZs": region}
}

// NoValue removes the enclosing property when returned from Fn::If.
func NoValue() Fn {
	return Ref(NoValueParam)
}
