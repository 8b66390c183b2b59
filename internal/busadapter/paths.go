package busadapter

import "fmt"

// Path name constants, grouped by subsystem. Per-cell paths are generated by
// CellPath since their count depends on PackConfig.
const (
	PathMgmtProcessName    = "/Mgmt/ProcessName"
	PathMgmtProcessVersion = "/Mgmt/ProcessVersion"
	PathMgmtConnection     = "/Mgmt/Connection"
	PathDeviceInstance     = "/DeviceInstance"
	PathProductId          = "/ProductId"
	PathProductName        = "/ProductName"
	PathManufacturer       = "/Manufacturer"
	PathFirmwareVersion    = "/FirmwareVersion"
	PathHardwareVersion    = "/HardwareVersion"
	PathSerial             = "/Serial"
	PathConnected          = "/Connected"

	PathDcVoltage     = "/Dc/0/Voltage"
	PathDcCurrent     = "/Dc/0/Current"
	PathDcPower       = "/Dc/0/Power"
	PathDcTemperature = "/Dc/0/Temperature"
	PathSoc           = "/Soc"
	PathSoh           = "/Soh"
	PathCapacity      = "/Capacity"
	PathInstalledCap  = "/InstalledCapacity"
	PathState         = "/State"
	PathMode          = "/Mode"
	PathTimeToGo      = "/TimeToGo"

	PathInfoMaxChargeCurrent    = "/Info/MaxChargeCurrent"
	PathInfoMaxDischargeCurrent = "/Info/MaxDischargeCurrent"
	PathInfoMaxChargeVoltage    = "/Info/MaxChargeVoltage"
	PathInfoBatteryLowVoltage   = "/Info/BatteryLowVoltage"

	PathSystemNrOfBatteries               = "/System/NrOfBatteries"
	PathSystemNrOfModulesOnline           = "/System/NrOfModulesOnline"
	PathSystemNrOfModulesOffline          = "/System/NrOfModulesOffline"
	PathSystemNrOfModulesBlockingCharge   = "/System/NrOfModulesBlockingCharge"
	PathSystemNrOfModulesBlockingDischarge = "/System/NrOfModulesBlockingDischarge"
	PathSystemNrOfBatteriesBalancing      = "/System/NrOfBatteriesBalancing"
	PathSystemBatteriesSeries             = "/System/BatteriesSeries"
	PathSystemBatteriesParallel           = "/System/BatteriesParallel"
	PathSystemNrOfCellsPerBattery         = "/System/NrOfCellsPerBattery"
	PathSystemMinCellVoltage              = "/System/MinCellVoltage"
	PathSystemMaxCellVoltage              = "/System/MaxCellVoltage"
	PathSystemMinVoltageCellId            = "/System/MinVoltageCellId"
	PathSystemMaxVoltageCellId            = "/System/MaxVoltageCellId"
	PathSystemMinCellTemperature          = "/System/MinCellTemperature"
	PathSystemMaxCellTemperature          = "/System/MaxCellTemperature"
	PathSystemMinTemperatureCellId        = "/System/MinTemperatureCellId"
	PathSystemMaxTemperatureCellId        = "/System/MaxTemperatureCellId"
	PathSystemMaxPcbTemperature           = "/System/MaxPcbTemperature"

	PathAlarmsCellImbalance        = "/Alarms/CellImbalance"
	PathAlarmsLowVoltage           = "/Alarms/LowVoltage"
	PathAlarmsHighVoltage          = "/Alarms/HighVoltage"
	PathAlarmsLowSoc               = "/Alarms/LowSoc"
	PathAlarmsHighDischargeCurrent = "/Alarms/HighDischargeCurrent"
	PathAlarmsHighChargeCurrent    = "/Alarms/HighChargeCurrent"
	PathAlarmsLowTemperature       = "/Alarms/LowTemperature"
	PathAlarmsHighTemperature      = "/Alarms/HighTemperature"
	PathAlarmsInternalFailure      = "/Alarms/InternalFailure"

	PathVoltagesSum  = "/Voltages/Sum"
	PathVoltagesDiff = "/Voltages/Diff"

	PathHistoryMinCellVoltage           = "/History/MinimumCellVoltage"
	PathHistoryMaxCellVoltage           = "/History/MaximumCellVoltage"
	PathHistoryMinCellTemperature       = "/History/MinimumCellTemperature"
	PathHistoryMaxCellTemperature       = "/History/MaximumCellTemperature"
	PathHistoryMinSoc                   = "/History/MinimumSoc"
	PathHistoryMaxSoc                   = "/History/MaximumSoc"
	PathHistoryTotalAhDrawn             = "/History/TotalAhDrawn"
	PathHistoryChargeCycles             = "/History/ChargeCycles"
	PathHistoryTimeSinceLastFullCharge  = "/History/TimeSinceLastFullCharge"
)

// CellPath names the per-cell voltage path for a 1-based cell index.
func CellPath(i int) string {
	return fmt.Sprintf("/Voltages/Cell%d", i)
}

// ServiceName builds the bus-service name for the given interface and
// device instance: com.victronenergy.battery.socketcan_{interface}_di{n}.
func ServiceName(iface string, deviceInstance int) string {
	return fmt.Sprintf("com.victronenergy.battery.socketcan_%s_di%d", iface, deviceInstance)
}
