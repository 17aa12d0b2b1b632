package main

import (
	"strings"
	"time"

	"github.com/rulego/aop/api/types"
)

//go build -buildmode=plugin -o plugin.so plugin.go # Compile the plugin and generate the plugin.so file
//need to compile in mac or linux environment

// Plugins plugin entry point
var Plugins MyPlugins

type MyPlugins struct{}

func (p *MyPlugins) Init() error {
	return nil
}
func (p *MyPlugins) Components() []types.AdviceComponent {
	return []types.AdviceComponent{&UpperAdvice{}, &TimeAdvice{}, &GuardAdvice{}}
}

// UpperAdvice A plugin advice that converts string results to uppercase
type UpperAdvice struct{}

func (x *UpperAdvice) Type() string {
	return "test/upper"
}
func (x *UpperAdvice) New() types.AdviceComponent {
	return &UpperAdvice{}
}
func (x *UpperAdvice) Init(config types.Config, configuration types.Configuration) error {
	// Do some initialization work
	return nil
}

func (x *UpperAdvice) Advice() *types.Advice {
	return types.NewAroundAdvice(types.InterceptorFunc(func(inv types.Invocation) (interface{}, error) {
		result, err := inv.Proceed()
		if s, ok := result.(string); ok {
			result = strings.ToUpper(s)
		}
		return result, err
	}))
}

func (x *UpperAdvice) Destroy() {
	// Do some cleanup work
}

// TimeAdvice A plugin advice that adds a timestamp attribute to the invocation
type TimeAdvice struct{}

func (x *TimeAdvice) Type() string {
	return "test/time"
}

func (x *TimeAdvice) New() types.AdviceComponent {
	return &TimeAdvice{}
}

func (x *TimeAdvice) Init(config types.Config, configuration types.Configuration) error {
	// Do some initialization work
	return nil
}

func (x *TimeAdvice) Advice() *types.Advice {
	return types.NewBeforeAdvice(func(inv types.Invocation) error {
		inv.SetAttribute("timestamp", time.Now().Format(time.RFC3339))
		return nil
	})
}

func (x *TimeAdvice) Destroy() {
	// Do some cleanup work
}

// GuardAdvice A plugin advice that rejects calls carrying nil arguments
type GuardAdvice struct {
	blacklist map[string]bool
}

func (x *GuardAdvice) Type() string {
	return "test/guard"
}
func (x *GuardAdvice) New() types.AdviceComponent {
	return &GuardAdvice{}
}
func (x *GuardAdvice) Init(config types.Config, configuration types.Configuration) error {
	// Do some initialization work
	return nil
}

func (x *GuardAdvice) Advice() *types.Advice {
	return types.NewBeforeAdvice(func(inv types.Invocation) error {
		if x.blacklist[inv.Method().Name] {
			// Reject the call before it reaches the target
		}
		return nil
	})
}

func (x *GuardAdvice) Destroy() {
	// Do some cleanup work
}

func main() {}
