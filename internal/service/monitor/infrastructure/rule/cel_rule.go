// internal/service/monitor/infrastructure/rule/cel_rule.go
package rule

import (
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

// CelAlertRule 基于 CEL 表达式的告警规则, 表达式可在配置中调整而无需改代码.
// 表达式可引用三个变量: product(string), quantity(int), threshold(int).
type CelAlertRule struct {
	program   cel.Program
	threshold int
}

// NewCelAlertRule 编译配置中的规则表达式, 表达式非法时启动即失败.
func NewCelAlertRule(expression string, threshold int) (*CelAlertRule, error) {
	env, err := cel.NewEnv(
		cel.Variable("product", cel.StringType),
		cel.Variable("quantity", cel.IntType),
		cel.Variable("threshold", cel.IntType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create cel env")
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "compile alert rule %q", expression)
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.Errorf("alert rule %q must evaluate to bool, got %s", expression, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrap(err, "build cel program")
	}

	return &CelAlertRule{program: program, threshold: threshold}, nil
}

// ShouldAlert 判断某个商品当前库存是否触发低库存告警.
func (r *CelAlertRule) ShouldAlert(product string, quantity int) (bool, error) {
	out, _, err := r.program.Eval(map[string]interface{}{
		"product":   product,
		"quantity":  quantity,
		"threshold": r.threshold,
	})
	if err != nil {
		return false, errors.Wrap(err, "eval alert rule")
	}

	fired, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("alert rule returned non-bool value %v", out.Value())
	}
	return fired, nil
}
