/*
 * Copyright 2024 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package pointcut

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rulego/aop/api/types"
)

// ExpressionPointcut 使用expr表达式匹配方法
// 表达式返回`true`则切点生效
// 通过`type`变量访问类型名
// 通过`method`变量访问方法名
// 通过`attributes`变量访问类型和方法上的属性，方法属性覆盖同名类型属性。例如：`attributes.tx == "required"`
// 表达式执行失败视为不匹配
type ExpressionPointcut struct {
	//Expr 表达式
	Expr    string
	program *vm.Program
}

var _ types.Pointcut = (*ExpressionPointcut)(nil)

// Expression 编译表达式并创建切点
// Example: Expression(`type == "UserService" && method startsWith "Get"`)
func Expression(expression string) (*ExpressionPointcut, error) {
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, err
	}
	return &ExpressionPointcut{Expr: expression, program: program}, nil
}

// MatchesType 表达式在方法级求值，类型级不过滤
func (p *ExpressionPointcut) MatchesType(serviceType *types.ServiceType) bool {
	return true
}

func (p *ExpressionPointcut) MatchesMethod(serviceType *types.ServiceType, method *types.Method) bool {
	if p.program == nil || method == nil {
		return false
	}
	evn := map[string]interface{}{
		"method":     method.Name,
		"attributes": mergeAttributes(serviceType, method),
	}
	if serviceType != nil {
		evn["type"] = serviceType.Name
	}
	if out, err := vm.Run(p.program, evn); err != nil {
		return false
	} else {
		result, ok := out.(bool)
		return ok && result
	}
}

// mergeAttributes 合并类型和方法属性，方法属性优先
func mergeAttributes(serviceType *types.ServiceType, method *types.Method) map[string]string {
	merged := make(map[string]string)
	if serviceType != nil {
		for k, v := range serviceType.Attributes {
			merged[k] = v
		}
	}
	for k, v := range method.Attributes {
		merged[k] = v
	}
	return merged
}
