package tools

// Execute implements the session.ToolExecutor interface: a thin wrapper
// over Dispatch that surfaces the CoordError as a plain error, the shape
// execute_quick_action's step loop expects.
func (r *Registry) Execute(name string, params map[string]interface{}) (interface{}, error) {
	result := r.Dispatch(name, params)
	if result.Error != nil {
		return nil, result.Error
	}
	return result.Value, nil
}
