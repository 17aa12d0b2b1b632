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

package advice

import (
	"database/sql"
	"errors"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/utils/maps"
)

// 注册组件
func init() {
	Registry.Add(&Transaction{})
}

// TxAttributeKey is the invocation attribute under which the open
// transaction is stored for the rest of the chain and the target.
const TxAttributeKey = "$tx"

// TransactionConfiguration 组件配置
type TransactionConfiguration struct {
	// DriverName 数据库驱动名称，mysql或postgres
	DriverName string
	// Dsn 数据库连接配置，参考sql.Open参数
	Dsn string
	// PoolSize 连接池大小
	PoolSize int
}

// Transaction wraps each invocation in a database transaction. A transaction
// begins before the chain proceeds and is committed when the invocation
// returns successfully, rolled back when it returns an error. The open *sql.Tx
// is stored as an invocation attribute so downstream advice and the target
// can join it via TxFromInvocation.
//
// Transaction 将每次调用包裹在数据库事务中。链继续执行前开启事务，
// 调用成功返回时提交，返回错误时回滚。打开的 *sql.Tx 作为调用属性存储，
// 下游advice和目标方法可以通过 TxFromInvocation 加入该事务。
type Transaction struct {
	//组件配置
	Config TransactionConfiguration
	config types.Config
	client *sql.DB
}

// Ensuring Transaction implements types.AdviceComponent interface.
var _ types.AdviceComponent = (*Transaction)(nil)

// Type 组件类型
func (x *Transaction) Type() string {
	return "transaction"
}

func (x *Transaction) New() types.AdviceComponent {
	return &Transaction{Config: TransactionConfiguration{
		DriverName: "mysql",
		Dsn:        "root:root@tcp(127.0.0.1:3306)/test",
	}}
}

// Init 初始化组件。sql.Open延迟建立连接，首次调用时才真正连接数据库
func (x *Transaction) Init(config types.Config, configuration types.Configuration) error {
	x.config = config
	err := maps.Map2Struct(configuration, &x.Config)
	if err != nil {
		return err
	}
	if x.Config.DriverName == "" {
		x.Config.DriverName = "mysql"
	}
	if x.Config.Dsn == "" {
		return errors.New("dsn can not empty")
	}
	client, err := sql.Open(x.Config.DriverName, x.Config.Dsn)
	if err != nil {
		return err
	}
	if x.Config.PoolSize > 0 {
		client.SetMaxOpenConns(x.Config.PoolSize)
	}
	x.client = client
	return nil
}

func (x *Transaction) Advice() *types.Advice {
	return types.NewAroundAdvice(types.InterceptorFunc(func(inv types.Invocation) (interface{}, error) {
		tx, err := x.client.BeginTx(inv.Context(), nil)
		if err != nil {
			return nil, err
		}
		inv.SetAttribute(TxAttributeKey, tx)
		result, err := inv.Proceed()
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				x.config.Logger.Printf("transaction advice rollback error:%s", rollbackErr)
			}
			return result, err
		}
		if commitErr := tx.Commit(); commitErr != nil {
			return result, commitErr
		}
		return result, nil
	}))
}

// Destroy 销毁组件
func (x *Transaction) Destroy() {
	if x.client != nil {
		_ = x.client.Close()
	}
}

// TxFromInvocation returns the transaction opened for this invocation, if any.
func TxFromInvocation(inv types.Invocation) (*sql.Tx, bool) {
	if value, ok := inv.GetAttribute(TxAttributeKey); ok {
		if tx, ok := value.(*sql.Tx); ok {
			return tx, true
		}
	}
	return nil, false
}
