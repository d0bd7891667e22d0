/*
Package spheretest contains framework for automated GlowSphere contract
testing. It can be used to implement unit-tests for contract scenarios in Go
using regular Go conventions.

Usually it's used like this:
  - an instance of blockchain is created using chain subpackage
  - Executor is created for blockchain
  - Invoker is used to get a ContractInvoker for some account (Account
    returns well-known named accounts, NewAccount creates random ones)
  - ContractInvoker then performs test invocations, each one mined in its
    own block, or Mine groups several calls into one block

Higher-order methods provided in Executor and ContractInvoker hide the details
of transaction creation for the most part, but there are lower-level methods as
well that can be used for specific tasks.
*/
package spheretest
