package models

// RangeConfig is the LED colour-threshold form. Values are kept as typed,
// the device converts each field with atoi.
type RangeConfig struct {
	HighTempLower   string `json:"high_temp_lvalue" form:"red_led_range_l"`
	HighTempUpper   string `json:"high_temp_uvalue" form:"red_led_range_u"`
	MediumTempLower string `json:"medium_temp_lvalue" form:"green_led_range_l"`
	MediumTempUpper string `json:"medium_temp_uvalue" form:"green_led_range_u"`
	LowTempLower    string `json:"low_temp_lvalue" form:"blue_led_range_l"`
	LowTempUpper    string `json:"low_temp_uvalue" form:"blue_led_range_u"`

	FirstLedR  string `json:"r_value_first_led" form:"red_led_R"`
	FirstLedG  string `json:"g_value_first_led" form:"red_led_G"`
	FirstLedB  string `json:"b_value_first_led" form:"red_led_B"`
	SecondLedR string `json:"r_value_second_led" form:"green_led_R"`
	SecondLedG string `json:"g_value_second_led" form:"green_led_G"`
	SecondLedB string `json:"b_value_second_led" form:"green_led_B"`
	ThirdLedR  string `json:"r_value_third_led" form:"blue_led_R"`
	ThirdLedG  string `json:"g_value_third_led" form:"blue_led_G"`
	ThirdLedB  string `json:"b_value_third_led" form:"blue_led_B"`
}
